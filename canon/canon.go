// Package canon rewrites sliced expression trees into a normal form.
//
// Canonicalization makes algebraically-equivalent trees from different
// instruction orderings compare equal: constants fold, identities
// disappear, commutative operands sort into a stable order, and
// involutions (double negation, reciprocal of reciprocal) collapse.
// The pass is idempotent.
package canon

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/gogpu/shaderdep/ir"
)

// Canonicalize returns the normal form of an expression. The input tree
// is not modified; leaves are shared between input and output.
func Canonicalize(e *ir.Expr) *ir.Expr {
	if e == nil || e.IsLeaf() {
		return e
	}
	args := make([]*ir.Expr, len(e.Args))
	for i, a := range e.Args {
		args[i] = Canonicalize(a)
	}
	n := &ir.Expr{Op: e.Op, Args: args}

	// Rewrites can cascade (folding an operand may enable an identity
	// one level up), so apply rules until the node stops changing.
	for {
		r, changed := rewrite(n)
		if r.IsLeaf() {
			return r
		}
		if !changed {
			orderCommutative(r)
			return r
		}
		n = r
	}
}

// rewrite applies one round of local rules to a func node whose
// arguments are already canonical.
func rewrite(e *ir.Expr) (*ir.Expr, bool) {
	// Constant folding.
	if v, ok := foldConstants(e); ok {
		return v, true
	}

	switch e.Op {
	case ir.OpMul:
		if len(e.Args) == 2 {
			if isConst(e.Args[0], 1) {
				return e.Args[1], true
			}
			if isConst(e.Args[1], 1) {
				return e.Args[0], true
			}
			// The one rewrite allowed to drop leaves: a branch
			// multiplied by the constant zero contributes nothing.
			if isConst(e.Args[0], 0) || isConst(e.Args[1], 0) {
				return ir.NewConst(0), true
			}
		}
	case ir.OpAdd:
		if len(e.Args) == 2 {
			if isConst(e.Args[0], 0) {
				return e.Args[1], true
			}
			if isConst(e.Args[1], 0) {
				return e.Args[0], true
			}
		}
	case ir.OpSub:
		if len(e.Args) == 2 && isConst(e.Args[1], 0) {
			return e.Args[0], true
		}
	case ir.OpDiv:
		if len(e.Args) == 2 && isConst(e.Args[1], 1) {
			return e.Args[0], true
		}
	case ir.OpPower:
		if len(e.Args) == 2 && isConst(e.Args[1], 1) {
			return e.Args[0], true
		}
	case ir.OpNeg:
		if len(e.Args) == 1 {
			if inner := e.Args[0]; !inner.IsLeaf() && inner.Op == ir.OpNeg && len(inner.Args) == 1 {
				return inner.Args[0], true
			}
		}
	case ir.OpRcp:
		if len(e.Args) == 1 {
			if inner := e.Args[0]; !inner.IsLeaf() && inner.Op == ir.OpRcp && len(inner.Args) == 1 {
				return inner.Args[0], true
			}
		}
	case ir.OpFma:
		// Degenerate multiplies reduce Fma to Add.
		if len(e.Args) == 3 {
			if isConst(e.Args[0], 1) {
				return ir.NewFunc(ir.OpAdd, e.Args[1], e.Args[2]), true
			}
			if isConst(e.Args[1], 1) {
				return ir.NewFunc(ir.OpAdd, e.Args[0], e.Args[2]), true
			}
			if isConst(e.Args[0], 0) || isConst(e.Args[1], 0) {
				return e.Args[2], true
			}
		}
	case ir.OpMix:
		if len(e.Args) == 3 {
			if isConst(e.Args[2], 0) {
				return e.Args[0], true
			}
			if isConst(e.Args[2], 1) {
				return e.Args[1], true
			}
		}
	}
	return e, false
}

// orderCommutative sorts the operands of commutative ops by structural
// key so source operand order does not affect the canonical shape.
func orderCommutative(e *ir.Expr) {
	if e.IsLeaf() || !e.Op.Commutative() || len(e.Args) < 2 {
		return
	}
	sort.SliceStable(e.Args, func(i, j int) bool {
		return e.Args[i].Key() < e.Args[j].Key()
	})
}

func isConst(e *ir.Expr, v float32) bool {
	c, ok := e.ConstValue()
	return ok && c == v
}

// foldConstants reduces a func over all-constant operands to a single
// constant using float32 IEEE arithmetic. Results that are NaN or
// infinite are left unfolded so the tree stays serializable.
func foldConstants(e *ir.Expr) (*ir.Expr, bool) {
	vals := make([]float32, len(e.Args))
	for i, a := range e.Args {
		v, ok := a.ConstValue()
		if !ok {
			return nil, false
		}
		vals[i] = v
	}
	v, ok := fold(e.Op, vals)
	if !ok || math32.IsNaN(v) || math32.IsInf(v, 0) {
		return nil, false
	}
	return ir.NewConst(v), true
}

func fold(op ir.Op, v []float32) (float32, bool) {
	switch op {
	case ir.OpAdd:
		if len(v) == 2 {
			return v[0] + v[1], true
		}
	case ir.OpSub:
		if len(v) == 2 {
			return v[0] - v[1], true
		}
	case ir.OpMul:
		if len(v) == 2 {
			return v[0] * v[1], true
		}
	case ir.OpDiv:
		if len(v) == 2 && v[1] != 0 {
			return v[0] / v[1], true
		}
	case ir.OpNeg:
		if len(v) == 1 {
			return -v[0], true
		}
	case ir.OpRcp:
		if len(v) == 1 && v[0] != 0 {
			return 1 / v[0], true
		}
	case ir.OpRsq:
		if len(v) == 1 && v[0] > 0 {
			return 1 / math32.Sqrt(v[0]), true
		}
	case ir.OpSqrt:
		if len(v) == 1 && v[0] >= 0 {
			return math32.Sqrt(v[0]), true
		}
	case ir.OpFma:
		if len(v) == 3 {
			return v[0]*v[1] + v[2], true
		}
	case ir.OpMix:
		if len(v) == 3 {
			return v[0] + (v[1]-v[0])*v[2], true
		}
	case ir.OpPower:
		if len(v) == 2 {
			return math32.Pow(v[0], v[1]), true
		}
	case ir.OpDot:
		// Flattened pairs: dot(a, b) over n scalar lanes each.
		if len(v) >= 2 && len(v)%2 == 0 {
			half := len(v) / 2
			var sum float32
			for i := 0; i < half; i++ {
				sum += v[i] * v[half+i]
			}
			return sum, true
		}
	case ir.OpMin:
		if len(v) == 2 {
			return math32.Min(v[0], v[1]), true
		}
	case ir.OpMax:
		if len(v) == 2 {
			return math32.Max(v[0], v[1]), true
		}
	case ir.OpClamp:
		if len(v) == 3 {
			return math32.Min(math32.Max(v[0], v[1]), v[2]), true
		}
	case ir.OpSaturate:
		if len(v) == 1 {
			return math32.Min(math32.Max(v[0], 0), 1), true
		}
	case ir.OpFloor:
		if len(v) == 1 {
			return math32.Floor(v[0]), true
		}
	case ir.OpFract:
		if len(v) == 1 {
			return v[0] - math32.Floor(v[0]), true
		}
	case ir.OpAbs:
		if len(v) == 1 {
			return math32.Abs(v[0]), true
		}
	case ir.OpOverlay:
		if len(v) == 2 {
			if v[0] < 0.5 {
				return 2 * v[0] * v[1], true
			}
			return 1 - 2*(1-v[0])*(1-v[1]), true
		}
	}
	return 0, false
}
