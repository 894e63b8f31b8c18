package latte

import (
	"testing"

	"github.com/gogpu/shaderdep/ir"
)

const sampleShader = `
00 CALL_FS NO_BARRIER
01 TEX: ADDR(48) CNT(1)
     0  SAMPLE  R1.xyzw, R0.xy, t0, s0
02 ALU: ADDR(32) CNT(2)
     0  x: MUL  R2.x, R1.x, KC0[0].x
        y: MUL  R2.y, R1.y, KC0[0].y
03 EXP_DONE: PIX0, R2.xyzw
END_OF_PROGRAM
`

func TestParseSample(t *testing.T) {
	g, err := Parse(sampleShader)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	e, ok := ir.SliceOutput(g, "o0.x")
	if !ok {
		t.Fatal("o0.x should be written")
	}
	if e.IsLeaf() || e.Op != ir.OpMul {
		t.Fatalf("expected Mul, got %s", e.Key())
	}

	tex, ok := e.Args[0].Leaf.(ir.Texture)
	if !ok {
		t.Fatalf("expected Texture operand, got %s", e.Args[0].Key())
	}
	if tex.Name != "t0" || tex.Channel != ir.ChanX {
		t.Errorf("unexpected texture %+v", tex)
	}
	if len(tex.Coords) != 2 || tex.Coords[0].Name != "R0" || tex.Coords[1].Channel != ir.ChanY {
		t.Errorf("unexpected texcoords %+v", tex.Coords)
	}

	buf, ok := e.Args[1].Leaf.(ir.Buffer)
	if !ok {
		t.Fatalf("expected Buffer operand, got %s", e.Args[1].Key())
	}
	if buf.Name != "KC0" || buf.Index == nil || *buf.Index != 0 || buf.Channel != ir.ChanX {
		t.Errorf("unexpected buffer %+v", buf)
	}
}

func TestParsePVForwarding(t *testing.T) {
	src := `
00 ALU: ADDR(32) CNT(3)
     0  x: MUL  R1.x, R0.x, R0.y
     1  y: ADD  R2.y, PV0.x, 1.0f
01 EXP_DONE: PIX0, R2.yyyy
END_OF_PROGRAM
`
	g, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, ok := ir.SliceOutput(g, "o0.x")
	if !ok {
		t.Fatal("o0.x should be written")
	}
	if e.Op != ir.OpAdd {
		t.Fatalf("expected Add, got %s", e.Key())
	}
	inner := e.Args[0]
	if inner.IsLeaf() || inner.Op != ir.OpMul {
		t.Errorf("PV0.x should forward the previous Mul, got %s", inner.Key())
	}
}

func TestParseGroupReadsPreGroupState(t *testing.T) {
	// Both slots of group 0 read R0.x before either write commits.
	src := `
00 ALU: ADDR(32) CNT(2)
     0  x: ADD  R0.x, R0.x, 1.0f
        y: MOV  R1.y, R0.x
01 EXP_DONE: PIX0, R1.yyyy
END_OF_PROGRAM
`
	g, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, ok := ir.SliceOutput(g, "o0.x")
	if !ok {
		t.Fatal("o0.x should be written")
	}
	// The MOV must see the original attribute, not the same-group ADD.
	a, ok := e.Leaf.(ir.Attribute)
	if !ok || a.Name != "R0" || a.Channel != ir.ChanX {
		t.Errorf("expected pre-group R0.x attribute, got %s", e.Key())
	}
}

func TestParseScalarLaneAndPS(t *testing.T) {
	src := `
00 ALU: ADDR(32) CNT(2)
     0  t: RECIP_IEEE  R1.x, R0.w
     1  x: MUL  R2.x, R0.x, PS0
01 EXP_DONE: PIX0, R2.xxxx
END_OF_PROGRAM
`
	g, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, _ := ir.SliceOutput(g, "o0.x")
	if e == nil || e.Op != ir.OpMul {
		t.Fatalf("expected Mul, got %v", e)
	}
	if e.Args[1].IsLeaf() || e.Args[1].Op != ir.OpRcp {
		t.Errorf("PS should forward the reciprocal, got %s", e.Args[1].Key())
	}
}

func TestParseDot4(t *testing.T) {
	src := `
00 ALU: ADDR(32) CNT(4)
     0  x: DOT4  R1.x, R0.x, KC0[4].x
        y: DOT4  ____, R0.y, KC0[4].y
        z: DOT4  ____, R0.z, KC0[4].z
        w: DOT4  ____, R0.w, KC0[4].w
01 EXP_DONE: PIX0, R1.xxxx
END_OF_PROGRAM
`
	g, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, _ := ir.SliceOutput(g, "o0.x")
	if e == nil || e.Op != ir.OpDot {
		t.Fatalf("expected Dot, got %v", e)
	}
	if len(e.Args) != 8 {
		t.Errorf("expected 8 flattened lanes, got %d", len(e.Args))
	}
}

func TestParseUnknownOpcodeBecomesUnk(t *testing.T) {
	src := `
00 ALU: ADDR(32) CNT(1)
     0  x: SETGT_DX10  R1.x, R0.x, 0.5f
01 EXP_DONE: PIX0, R1.xxxx
END_OF_PROGRAM
`
	g, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, _ := ir.SliceOutput(g, "o0.x")
	if e == nil || e.Op != ir.OpUnk {
		t.Fatalf("expected Unk, got %v", e)
	}
	if len(e.Args) != 2 {
		t.Errorf("Unk lost operands: %s", e.Key())
	}
}

func TestParseLiteralSlot(t *testing.T) {
	src := `
00 ALU: ADDR(32) CNT(1)
     0  x: MUL  R1.x, R0.x, (0x40400000, 3.0f).x
01 EXP_DONE: PIX0, R1.xxxx
END_OF_PROGRAM
`
	g, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, _ := ir.SliceOutput(g, "o0.x")
	if e == nil || e.Op != ir.OpMul {
		t.Fatalf("expected Mul, got %v", e)
	}
	if v, ok := e.Args[1].ConstValue(); !ok || v != 3 {
		t.Errorf("literal slot should decode to 3.0, got %s", e.Args[1].Key())
	}
}

func TestParseKCacheBinding(t *testing.T) {
	src := `
00 ALU: ADDR(32) CNT(1) KCACHE0(CB1:0-15)
     0  x: MOV  R1.x, KC0[2].y
01 EXP_DONE: PIX0, R1.xxxx
END_OF_PROGRAM
`
	g, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, _ := ir.SliceOutput(g, "o0.x")
	buf, ok := e.Leaf.(ir.Buffer)
	if !ok {
		t.Fatalf("expected Buffer, got %s", e.Key())
	}
	if buf.Name != "CB1" || buf.Index == nil || *buf.Index != 2 || buf.Channel != ir.ChanY {
		t.Errorf("unexpected buffer %+v", buf)
	}
}

func TestParseNoClausesFails(t *testing.T) {
	if _, err := Parse("this is not a shader"); err == nil {
		t.Fatal("expected error for structureless input")
	}
}

func TestParseClampModifier(t *testing.T) {
	src := `
00 ALU: ADDR(32) CNT(1)
     0  x: ADD  R1.x, R0.x, R0.y CLAMP
01 EXP_DONE: PIX0, R1.xxxx
END_OF_PROGRAM
`
	g, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, _ := ir.SliceOutput(g, "o0.x")
	if e == nil || e.Op != ir.OpSaturate {
		t.Fatalf("expected Saturate wrapper, got %v", e)
	}
	if e.Args[0].Op != ir.OpAdd {
		t.Errorf("expected Add inside Saturate, got %s", e.Args[0].Key())
	}
}
