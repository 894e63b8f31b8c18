package ir

import (
	"strings"
	"testing"
)

func TestSliceDetachesAndDuplicates(t *testing.T) {
	g := NewGraph()
	shared := g.EmitFunc(OpMul,
		g.EmitLeaf(Attribute{Name: "vColor", Channel: ChanX}),
		g.EmitLeaf(Constant(0.5)))
	top := g.EmitFunc(OpAdd, shared, shared)

	e := Slice(g, top)
	if e.Op != OpAdd || len(e.Args) != 2 {
		t.Fatalf("unexpected shape: %s", e.Key())
	}
	// The shared subexpression is duplicated, not aliased.
	if e.Args[0] == e.Args[1] {
		t.Error("sliced tree aliases a shared subexpression")
	}
	if !Equal(e.Args[0], e.Args[1]) {
		t.Error("duplicated subexpressions should be structurally equal")
	}
}

func TestSliceSkipsUnreachable(t *testing.T) {
	g := NewGraph()
	live := g.EmitLeaf(Attribute{Name: "vTex0", Channel: ChanX})
	g.EmitFunc(OpMul, g.EmitLeaf(Constant(3)), g.EmitLeaf(Constant(4))) // dead
	g.RecordWrite("o0.x", live)

	e, ok := SliceOutput(g, "o0.x")
	if !ok {
		t.Fatal("o0.x should slice")
	}
	leaves := Leaves(e)
	if len(leaves) != 1 {
		t.Fatalf("expected 1 leaf, got %d", len(leaves))
	}
	if a, ok := leaves[0].(Attribute); !ok || a.Name != "vTex0" {
		t.Errorf("unexpected leaf %v", leaves[0])
	}
}

func TestSliceMissingOutput(t *testing.T) {
	g := NewGraph()
	if _, ok := SliceOutput(g, "o3.w"); ok {
		t.Error("unwritten output should not slice")
	}
}

func TestExprJSONRoundTrip(t *testing.T) {
	idx := 2
	e := NewFunc(OpMix,
		NewLeaf(Texture{
			Name:    "s0",
			Channel: ChanX,
			Coords: []TexCoord{
				{Name: "vTex0", Channel: ChanX},
				{Name: "vTex0", Channel: ChanY, Transform: &CoordTransform{Scale: 2, Offset: 0.25}},
			},
		}),
		NewLeaf(Buffer{Name: "cbMaterial", Field: "tint", Index: &idx, Channel: ChanZ}),
		NewConst(0.75))

	data, err := e.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Expr
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !Equal(e, &back) {
		t.Errorf("round trip changed tree:\n in: %s\nout: %s", e.Key(), back.Key())
	}
}

func TestDumpChainShowsOnlyReachable(t *testing.T) {
	g := NewGraph()
	a := g.EmitLeaf(Attribute{Name: "vNormal", Channel: ChanZ})
	g.EmitLeaf(Constant(42)) // not reachable from top
	top := g.EmitFunc(OpSaturate, a)

	var sb strings.Builder
	g.DumpChain(&sb, top)
	out := sb.String()
	if strings.Contains(out, "42") {
		t.Errorf("dump contains unreachable node:\n%s", out)
	}
	if !strings.Contains(out, "vNormal.z") || !strings.Contains(out, "Saturate") {
		t.Errorf("dump missing reachable nodes:\n%s", out)
	}
}
