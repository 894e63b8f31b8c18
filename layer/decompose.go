package layer

import "github.com/gogpu/shaderdep/ir"

// Decompose matches blend idioms against a canonical tree and collapses
// each match into a Layer.
//
// Matching peels the tree outermost-first: each recognized template
// contributes one layer and the accumulator operand is matched next, so
// the returned chain is ordered base-first. Unmatched structure becomes
// the base layer with ratio one and Mix blending, possibly containing
// Unk nodes.
func Decompose(e *ir.Expr) []Layer {
	if e == nil {
		return nil
	}

	// Peeled layers arrive outermost-first; the chain applies base-first.
	var peeled []Layer
	cur := e
	for !cur.IsLeaf() {
		l, acc, ok := peelOne(cur)
		if !ok {
			break
		}
		peeled = append(peeled, l)
		cur = acc
	}

	layers := make([]Layer, 0, len(peeled)+1)
	layers = append(layers, Layer{
		Value:   cur,
		Ratio:   ir.NewConst(1),
		Blend:   BlendMix,
		Fresnel: hasFresnelTerm(cur),
	})
	for i := len(peeled) - 1; i >= 0; i-- {
		layers = append(layers, peeled[i])
	}
	return layers
}

// peelOne matches one blend template at the root. It returns the layer
// for the non-accumulator operand and the accumulator subtree to match
// next.
func peelOne(e *ir.Expr) (Layer, *ir.Expr, bool) {
	switch e.Op {
	case ir.OpMix:
		// Mix(a, b, t): b blended over accumulator a at ratio t.
		if len(e.Args) == 3 {
			return Layer{
				Value:   e.Args[1],
				Ratio:   e.Args[2],
				Blend:   BlendMix,
				Fresnel: hasFresnelTerm(e.Args[2]),
			}, e.Args[0], true
		}
	case ir.OpFma:
		// Fma(x, t, a) = a + x*t: additive layer x at ratio t.
		if len(e.Args) == 3 {
			return Layer{
				Value:   e.Args[0],
				Ratio:   e.Args[1],
				Blend:   BlendAdd,
				Fresnel: hasFresnelTerm(e.Args[1]),
			}, e.Args[2], true
		}
	case ir.OpAdd:
		if len(e.Args) == 2 {
			// A weighted term Add(a, Mul(x, t)) peels as x at ratio t.
			if v, r, ok := splitWeighted(e.Args[1]); ok {
				return Layer{
					Value:   v,
					Ratio:   r,
					Blend:   BlendAdd,
					Fresnel: hasFresnelTerm(r),
				}, e.Args[0], true
			}
			return Layer{
				Value:   e.Args[1],
				Ratio:   ir.NewConst(1),
				Blend:   BlendAdd,
				Fresnel: hasFresnelTerm(e.Args[1]),
			}, e.Args[0], true
		}
	case ir.OpSub:
		if len(e.Args) == 2 {
			return Layer{
				Value: e.Args[1],
				Ratio: ir.NewConst(1),
				Blend: BlendSub,
			}, e.Args[0], true
		}
	case ir.OpMul:
		if len(e.Args) == 2 {
			return Layer{
				Value: e.Args[1],
				Ratio: ir.NewConst(1),
				Blend: BlendMul,
			}, e.Args[0], true
		}
	case ir.OpOverlay:
		if len(e.Args) == 2 {
			return Layer{
				Value: e.Args[1],
				Ratio: ir.NewConst(1),
				Blend: BlendOverlay,
			}, e.Args[0], true
		}
	}
	return Layer{}, nil, false
}

// splitWeighted recognizes Mul(x, t) where t looks like a scalar weight
// (a constant or a single buffer field), yielding value x and ratio t.
func splitWeighted(e *ir.Expr) (value, ratio *ir.Expr, ok bool) {
	if e.IsLeaf() || e.Op != ir.OpMul || len(e.Args) != 2 {
		return nil, nil, false
	}
	if isWeight(e.Args[1]) {
		return e.Args[0], e.Args[1], true
	}
	if isWeight(e.Args[0]) {
		return e.Args[1], e.Args[0], true
	}
	return nil, nil, false
}

func isWeight(e *ir.Expr) bool {
	if !e.IsLeaf() {
		return false
	}
	switch e.Leaf.(type) {
	case ir.Constant, ir.Buffer:
		return true
	}
	return false
}

// hasFresnelTerm reports whether the tree contains the fresnel idiom
// Power(Sub(1, <dot-like>), n): one minus a dot product raised to a
// power, the classic rim/view-angle weight.
func hasFresnelTerm(e *ir.Expr) bool {
	if e == nil || e.IsLeaf() {
		return false
	}
	if e.Op == ir.OpPower && len(e.Args) == 2 {
		base := e.Args[0]
		if !base.IsLeaf() && base.Op == ir.OpSub && len(base.Args) == 2 {
			if v, ok := base.Args[0].ConstValue(); ok && v == 1 && containsDot(base.Args[1]) {
				return true
			}
		}
	}
	for _, a := range e.Args {
		if hasFresnelTerm(a) {
			return true
		}
	}
	return false
}

func containsDot(e *ir.Expr) bool {
	if e == nil || e.IsLeaf() {
		return false
	}
	if e.Op == ir.OpDot {
		return true
	}
	for _, a := range e.Args {
		if containsDot(a) {
			return true
		}
	}
	return false
}
