package latte

import (
	"strings"

	"github.com/gogpu/shaderdep/ir"
)

// texLine parses one TEX clause slot, e.g.
//
//	2  SAMPLE  R4.xyzw, R0.xy, t0, s0
//
// Each unmasked destination channel receives a texture leaf carrying
// the sampled component at that slot position, with the coordinate
// registers traced back to their source attributes.
func (p *parser) texLine(line string) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) == 0 {
		return
	}
	if allDigits(fields[0]) {
		fields = fields[1:]
	}
	if len(fields) < 3 || !strings.HasPrefix(fields[0], "SAMPLE") {
		// Other fetch forms (LD, GET_GRADIENTS, ...) carry no
		// dependency mapping this analysis models.
		return
	}

	dstReg, dstSwizzle := splitRegister(fields[1])
	if dstSwizzle == "" {
		dstSwizzle = "xyzw"
	}
	srcReg, srcSwizzle := splitRegister(fields[2])
	if srcSwizzle == "" {
		srcSwizzle = "xy"
	}
	texName := "t?"
	if len(fields) >= 4 {
		texName = fields[3]
	}

	coords := make([]ir.TexCoord, 0, len(srcSwizzle))
	for i := 0; i < len(srcSwizzle); i++ {
		ch, ok := ir.ParseChannel(srcSwizzle[i])
		if !ok {
			continue
		}
		coords = append(coords, p.texCoord(srcReg, ch))
	}

	for i := 0; i < len(dstSwizzle) && i < 4; i++ {
		if dstSwizzle[i] == '_' {
			continue
		}
		ch, ok := ir.ParseChannel(dstSwizzle[i])
		if !ok {
			continue
		}
		leaf := p.g.EmitLeaf(ir.Texture{
			Name:    texName,
			Channel: ir.Channel(i),
			Coords:  coords,
		})
		p.g.RecordWrite(dstReg+"."+ch.String(), leaf)
	}
}

// texCoord traces one coordinate register channel back to the attribute
// feeding it, recovering affine transform parameters when the register
// holds a scaled or offset coordinate.
func (p *parser) texCoord(reg string, ch ir.Channel) ir.TexCoord {
	ref, written := p.g.LastWrite(reg + "." + ch.String())
	if !written {
		// Interpolated input register, used directly.
		return ir.TexCoord{Name: reg, Channel: ch}
	}

	if tc, ok := affineCoord(p.g, ref); ok {
		return tc
	}
	if attr, ok := ir.FirstAttribute(p.g, ref); ok {
		return ir.TexCoord{Name: attr.Name, Channel: attr.Channel}
	}
	return ir.TexCoord{Name: reg, Channel: ch}
}

// affineCoord recognizes Mul(attr, const) and Fma(attr, scale, offset)
// coordinate chains.
func affineCoord(g *ir.Graph, ref ir.NodeRef) (ir.TexCoord, bool) {
	f, ok := g.Resolve(ref).(ir.Func)
	if !ok {
		return ir.TexCoord{}, false
	}
	attrOf := func(r ir.NodeRef) (ir.Attribute, bool) {
		v, ok := g.Resolve(r).(ir.Value)
		if !ok {
			return ir.Attribute{}, false
		}
		a, ok := v.Leaf.(ir.Attribute)
		return a, ok
	}
	constOf := func(r ir.NodeRef) (float32, bool) {
		v, ok := g.Resolve(r).(ir.Value)
		if !ok {
			return 0, false
		}
		c, ok := v.Leaf.(ir.Constant)
		return float32(c), ok
	}

	switch f.Op {
	case ir.OpMul:
		if len(f.Args) == 2 {
			if a, okA := attrOf(f.Args[0]); okA {
				if s, okS := constOf(f.Args[1]); okS {
					return ir.TexCoord{Name: a.Name, Channel: a.Channel, Transform: &ir.CoordTransform{Scale: s}}, true
				}
			}
			if a, okA := attrOf(f.Args[1]); okA {
				if s, okS := constOf(f.Args[0]); okS {
					return ir.TexCoord{Name: a.Name, Channel: a.Channel, Transform: &ir.CoordTransform{Scale: s}}, true
				}
			}
		}
	case ir.OpFma:
		if len(f.Args) == 3 {
			if a, okA := attrOf(f.Args[0]); okA {
				if s, okS := constOf(f.Args[1]); okS {
					if o, okO := constOf(f.Args[2]); okO {
						return ir.TexCoord{Name: a.Name, Channel: a.Channel, Transform: &ir.CoordTransform{Scale: s, Offset: o}}, true
					}
				}
			}
		}
	}
	return ir.TexCoord{}, false
}
