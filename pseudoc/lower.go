package pseudoc

import (
	"github.com/gogpu/shaderdep/ir"
)

// Parse tokenizes, parses, and lowers pseudo-C shader source into an
// instruction graph. Statement-level failures lower to Unk nodes; only a
// structurally unparseable file returns an error.
func Parse(source string) (*ir.Graph, error) {
	lexer := NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}
	parser := NewParser(tokens, source)
	stmts, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	lw := &lowerer{g: ir.NewGraph()}
	for _, s := range stmts {
		lw.stmt(s)
	}
	return lw.g, nil
}

type lowerer struct {
	g *ir.Graph
}

func (lw *lowerer) stmt(s Stmt) {
	switch st := s.(type) {
	case AssignStmt:
		for lane, ch := range destChannels(st.Dest) {
			ref := lw.expr(st.Expr, lane)
			lw.g.RecordWrite(st.Dest.Name+"."+ch.String(), ref)
		}
	case DiscardStmt:
		lw.g.Discards = true
	case BadStmt:
		if st.Dest != nil {
			// Keep the destination resolvable for later reads, with the
			// arithmetic marked unknown.
			for _, ch := range destChannels(*st.Dest) {
				ref := lw.g.EmitFunc(ir.OpUnk)
				lw.g.RecordWrite(st.Dest.Name+"."+ch.String(), ref)
			}
		}
	}
}

// destChannels expands an assignment destination into scalar channels.
// An unswizzled destination writes all four components.
func destChannels(dest Ref) []ir.Channel {
	sw := dest.Swizzle
	if sw == "" {
		sw = "xyzw"
	}
	channels := make([]ir.Channel, 0, len(sw))
	for i := 0; i < len(sw); i++ {
		if ch, ok := ir.ParseChannel(sw[i]); ok {
			channels = append(channels, ch)
		}
	}
	return channels
}

// expr lowers one scalar lane of an expression into the graph.
func (lw *lowerer) expr(e Expr, lane int) ir.NodeRef {
	switch ex := e.(type) {
	case NumberExpr:
		return lw.g.EmitLeaf(ir.Constant(ex.Value))
	case UnaryExpr:
		return lw.g.EmitFunc(ir.OpNeg, lw.expr(ex.Operand, lane))
	case BinaryExpr:
		return lw.g.EmitFunc(binOp(ex.Op), lw.expr(ex.Left, lane), lw.expr(ex.Right, lane))
	case Ref:
		return lw.ref(ex, lane)
	case CallExpr:
		return lw.call(ex, lane)
	}
	return lw.g.EmitFunc(ir.OpUnk)
}

func binOp(op byte) ir.Op {
	switch op {
	case '+':
		return ir.OpAdd
	case '-':
		return ir.OpSub
	case '*':
		return ir.OpMul
	case '/':
		return ir.OpDiv
	}
	return ir.OpUnk
}

// ref resolves one lane of an identifier reference.
func (lw *lowerer) ref(r Ref, lane int) ir.NodeRef {
	ch := r.channel(lane)

	// Struct/array field access on a uniform block.
	if r.Field != "" || r.Index != nil {
		return lw.g.EmitLeaf(ir.Buffer{
			Name:    r.Name,
			Field:   r.Field,
			Index:   r.Index,
			Channel: ch,
		})
	}

	// A previously written temp or output resolves to its last write.
	if ref, ok := lw.g.LastWrite(r.Name + "." + ch.String()); ok {
		return ref
	}

	// Anything else is an interpolated input.
	return lw.g.EmitLeaf(ir.Attribute{Name: r.Name, Channel: ch})
}

// channel maps a lane index through the reference's swizzle.
func (r Ref) channel(lane int) ir.Channel {
	if r.Swizzle == "" {
		return ir.Channel(lane & 3)
	}
	i := lane
	if i >= len(r.Swizzle) {
		i = len(r.Swizzle) - 1
	}
	ch, _ := ir.ParseChannel(r.Swizzle[i])
	return ch
}

func (lw *lowerer) call(c CallExpr, lane int) ir.NodeRef {
	switch c.Name {
	case "texture", "texture2D", "tex2D", "sample":
		return lw.sample(c, lane)
	case "mix", "lerp":
		return lw.nary(ir.OpMix, c, lane, 3)
	case "fma", "mad":
		return lw.nary(ir.OpFma, c, lane, 3)
	case "pow":
		return lw.nary(ir.OpPower, c, lane, 2)
	case "dot":
		return lw.dot(c)
	case "min":
		return lw.nary(ir.OpMin, c, lane, 2)
	case "max":
		return lw.nary(ir.OpMax, c, lane, 2)
	case "clamp":
		return lw.nary(ir.OpClamp, c, lane, 3)
	case "saturate":
		return lw.nary(ir.OpSaturate, c, lane, 1)
	case "floor":
		return lw.nary(ir.OpFloor, c, lane, 1)
	case "fract", "frac":
		return lw.nary(ir.OpFract, c, lane, 1)
	case "abs":
		return lw.nary(ir.OpAbs, c, lane, 1)
	case "sqrt":
		return lw.nary(ir.OpSqrt, c, lane, 1)
	case "inversesqrt", "rsqrt":
		return lw.nary(ir.OpRsq, c, lane, 1)
	case "rcp":
		return lw.nary(ir.OpRcp, c, lane, 1)
	}
	// Unrecognized builtin: keep the operand edges, mark the op unknown.
	args := make([]ir.NodeRef, len(c.Args))
	for i, a := range c.Args {
		args[i] = lw.expr(a, lane)
	}
	return lw.g.EmitFunc(ir.OpUnk, args...)
}

// nary lowers a call with a known op when the arity matches, Unk
// otherwise.
func (lw *lowerer) nary(op ir.Op, c CallExpr, lane int, arity int) ir.NodeRef {
	if len(c.Args) != arity {
		op = ir.OpUnk
	}
	args := make([]ir.NodeRef, len(c.Args))
	for i, a := range c.Args {
		args[i] = lw.expr(a, lane)
	}
	return lw.g.EmitFunc(op, args...)
}

// dot lowers dot(a, b) by flattening both operands' lanes into one
// argument list: a0..an, b0..bn.
func (lw *lowerer) dot(c CallExpr) ir.NodeRef {
	if len(c.Args) != 2 {
		args := make([]ir.NodeRef, len(c.Args))
		for i, a := range c.Args {
			args[i] = lw.expr(a, i)
		}
		return lw.g.EmitFunc(ir.OpUnk, args...)
	}
	width := exprWidth(c.Args[0])
	if w := exprWidth(c.Args[1]); w > width {
		width = w
	}
	var args []ir.NodeRef
	for lane := 0; lane < width; lane++ {
		args = append(args, lw.expr(c.Args[0], lane))
	}
	for lane := 0; lane < width; lane++ {
		args = append(args, lw.expr(c.Args[1], lane))
	}
	return lw.g.EmitFunc(ir.OpDot, args...)
}

// exprWidth guesses the component width of an expression from its
// swizzles. Unswizzled operands default to full width.
func exprWidth(e Expr) int {
	switch ex := e.(type) {
	case Ref:
		if ex.Swizzle != "" {
			return len(ex.Swizzle)
		}
	case CallExpr:
		if ex.Swizzle != "" {
			return len(ex.Swizzle)
		}
	case BinaryExpr:
		lw, rw := exprWidth(ex.Left), exprWidth(ex.Right)
		if lw > rw {
			return lw
		}
		return rw
	case UnaryExpr:
		return exprWidth(ex.Operand)
	case NumberExpr:
		return 1
	}
	return 4
}

// sample lowers a texture sampling call into a Texture leaf with its
// coordinate sources resolved back to attributes.
func (lw *lowerer) sample(c CallExpr, lane int) ir.NodeRef {
	if len(c.Args) < 2 {
		return lw.g.EmitFunc(ir.OpUnk)
	}
	name := "tex"
	if r, ok := c.Args[0].(Ref); ok {
		name = r.Name
	}

	coordExpr := c.Args[1]
	width := exprWidth(coordExpr)
	if width > 2 {
		width = 2
	}
	coords := make([]ir.TexCoord, 0, width)
	for coordLane := 0; coordLane < width; coordLane++ {
		coords = append(coords, lw.texCoord(coordExpr, coordLane))
	}

	ch := ir.Channel(lane & 3)
	if c.Swizzle != "" {
		i := lane
		if i >= len(c.Swizzle) {
			i = len(c.Swizzle) - 1
		}
		ch, _ = ir.ParseChannel(c.Swizzle[i])
	}

	return lw.g.EmitLeaf(ir.Texture{Name: name, Channel: ch, Coords: coords})
}

// texCoord resolves one scalar texture coordinate back to the attribute
// feeding it, extracting affine transform parameters when the coordinate
// is scaled or offset.
func (lw *lowerer) texCoord(e Expr, lane int) ir.TexCoord {
	switch ex := e.(type) {
	case Ref:
		if ex.Field == "" && ex.Index == nil {
			return lw.attrCoord(ex, lane, nil)
		}
	case BinaryExpr:
		// attr * scale
		if ex.Op == '*' {
			if r, n, ok := refTimesNumber(ex); ok {
				return lw.attrCoord(r, lane, &ir.CoordTransform{Scale: n})
			}
		}
		// attr * scale + offset
		if ex.Op == '+' {
			if inner, okInner := ex.Left.(BinaryExpr); okInner && inner.Op == '*' {
				if r, s, ok := refTimesNumber(inner); ok {
					if off, okOff := ex.Right.(NumberExpr); okOff {
						return lw.attrCoord(r, lane, &ir.CoordTransform{Scale: s, Offset: off.Value})
					}
				}
			}
		}
	case CallExpr:
		if (ex.Name == "fma" || ex.Name == "mad") && len(ex.Args) == 3 {
			if r, okR := ex.Args[0].(Ref); okR {
				if s, okS := ex.Args[1].(NumberExpr); okS {
					if o, okO := ex.Args[2].(NumberExpr); okO {
						return lw.attrCoord(r, lane, &ir.CoordTransform{Scale: s.Value, Offset: o.Value})
					}
				}
			}
		}
	}

	// Derived coordinate: lower it and walk back to the first attribute
	// it depends on.
	ref := lw.expr(e, lane)
	if attr, ok := ir.FirstAttribute(lw.g, ref); ok {
		return ir.TexCoord{Name: attr.Name, Channel: attr.Channel}
	}
	return ir.TexCoord{Name: "", Channel: ir.Channel(lane & 3)}
}

// attrCoord builds a TexCoord from a swizzled attribute reference. A
// reference that resolves to a written temp walks back to its source
// attribute instead.
func (lw *lowerer) attrCoord(r Ref, lane int, t *ir.CoordTransform) ir.TexCoord {
	ch := r.channel(lane)
	if ref, ok := lw.g.LastWrite(r.Name + "." + ch.String()); ok {
		if attr, found := ir.FirstAttribute(lw.g, ref); found {
			return ir.TexCoord{Name: attr.Name, Channel: attr.Channel, Transform: t}
		}
	}
	return ir.TexCoord{Name: r.Name, Channel: ch, Transform: t}
}

// refTimesNumber matches `ref * number` in either operand order.
func refTimesNumber(b BinaryExpr) (Ref, float32, bool) {
	if r, ok := b.Left.(Ref); ok {
		if n, okN := b.Right.(NumberExpr); okN {
			return r, n.Value, true
		}
	}
	if r, ok := b.Right.(Ref); ok {
		if n, okN := b.Left.(NumberExpr); okN {
			return r, n.Value, true
		}
	}
	return Ref{}, 0, false
}
