package ir

// Op identifies the operation performed by a Func node.
//
// The set is closed: frontends map every opcode or builtin they recognize
// onto one of these, and everything else becomes OpUnk with its operands
// preserved, so no leaf dependency is ever lost to an unknown instruction.
type Op uint8

const (
	// OpUnk marks an operation the frontend could not classify.
	// Argument edges are kept; only the arithmetic is opaque.
	OpUnk Op = iota

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpRcp // reciprocal
	OpRsq // reciprocal square root
	OpSqrt
	OpFma // a*b + c
	OpMix // mix(a, b, t) = a + (b-a)*t
	OpPower
	OpOverlay
	OpDot
	OpMin
	OpMax
	OpClamp
	OpSaturate
	OpFloor
	OpFract
	OpAbs
)

var opNames = [...]string{
	OpUnk:      "Unk",
	OpAdd:      "Add",
	OpSub:      "Sub",
	OpMul:      "Mul",
	OpDiv:      "Div",
	OpNeg:      "Neg",
	OpRcp:      "Rcp",
	OpRsq:      "Rsq",
	OpSqrt:     "Sqrt",
	OpFma:      "Fma",
	OpMix:      "Mix",
	OpPower:    "Power",
	OpOverlay:  "Overlay",
	OpDot:      "Dot",
	OpMin:      "Min",
	OpMax:      "Max",
	OpClamp:    "Clamp",
	OpSaturate: "Saturate",
	OpFloor:    "Floor",
	OpFract:    "Fract",
	OpAbs:      "Abs",
}

// String returns the operation name.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "Unk"
}

// ParseOp maps an operation name back to its Op. Unrecognized names
// yield OpUnk.
func ParseOp(name string) Op {
	for op, n := range opNames {
		if n == name {
			return Op(op)
		}
	}
	return OpUnk
}

// Commutative reports whether argument order is irrelevant for the
// operation, which permits canonical reordering of its operands. Dot is
// excluded: its flattened argument list pairs lanes positionally, so
// only a swap of whole halves would preserve meaning.
func (op Op) Commutative() bool {
	switch op {
	case OpAdd, OpMul, OpMin, OpMax:
		return true
	}
	return false
}
