package layer

import (
	"testing"

	"github.com/gogpu/shaderdep/ir"
)

func tex(name string) *ir.Expr {
	return ir.NewLeaf(ir.Texture{
		Name:    name,
		Channel: ir.ChanX,
		Coords:  []ir.TexCoord{{Name: "vTex0", Channel: ir.ChanX}, {Name: "vTex0", Channel: ir.ChanY}},
	})
}

func TestDecomposeLeafIsSingleMixLayer(t *testing.T) {
	layers := Decompose(tex("s0"))
	if len(layers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(layers))
	}
	l := layers[0]
	if l.Blend != BlendMix || l.Fresnel {
		t.Errorf("unexpected layer %+v", l)
	}
	if v, ok := l.Ratio.ConstValue(); !ok || v != 1 {
		t.Errorf("expected ratio 1, got %s", l.Ratio.Key())
	}
	if !ir.Equal(l.Value, tex("s0")) {
		t.Errorf("value changed: %s", l.Value.Key())
	}
}

func TestDecomposeMix(t *testing.T) {
	ratio := ir.NewLeaf(ir.Buffer{Name: "cbMat", Field: "blend", Channel: ir.ChanX})
	e := ir.NewFunc(ir.OpMix, tex("s0"), tex("s1"), ratio)

	layers := Decompose(e)
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(layers))
	}
	if !ir.Equal(layers[0].Value, tex("s0")) {
		t.Errorf("base layer should carry the accumulator, got %s", layers[0].Value.Key())
	}
	if !ir.Equal(layers[1].Value, tex("s1")) || !ir.Equal(layers[1].Ratio, ratio) {
		t.Errorf("top layer mismatched: %+v", layers[1])
	}
	if layers[1].Blend != BlendMix {
		t.Errorf("expected Mix blend, got %s", layers[1].Blend)
	}
}

func TestDecomposeMultiplicative(t *testing.T) {
	tint := ir.NewLeaf(ir.Buffer{Name: "cbMat", Field: "tint", Channel: ir.ChanX})
	e := ir.NewFunc(ir.OpMul, tex("s0"), tint)

	layers := Decompose(e)
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(layers))
	}
	if layers[1].Blend != BlendMul {
		t.Errorf("expected Mul blend, got %s", layers[1].Blend)
	}
	if !ir.Equal(layers[1].Value, tint) {
		t.Errorf("unexpected layer value %s", layers[1].Value.Key())
	}
}

func TestDecomposeWeightedAdd(t *testing.T) {
	weight := ir.NewLeaf(ir.Buffer{Name: "cbMat", Field: "glowStrength", Channel: ir.ChanX})
	e := ir.NewFunc(ir.OpAdd, tex("s0"), ir.NewFunc(ir.OpMul, tex("s1"), weight))

	layers := Decompose(e)
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(layers))
	}
	top := layers[1]
	if top.Blend != BlendAdd {
		t.Errorf("expected Add blend, got %s", top.Blend)
	}
	if !ir.Equal(top.Value, tex("s1")) || !ir.Equal(top.Ratio, weight) {
		t.Errorf("weighted add not split: value %s ratio %s", top.Value.Key(), top.Ratio.Key())
	}
}

func TestFresnelDetection(t *testing.T) {
	// Power(Sub(1, Dot(n, v)), 5) as a mix ratio marks the layer fresnel.
	dot := ir.NewFunc(ir.OpDot,
		ir.NewLeaf(ir.Attribute{Name: "vNormal", Channel: ir.ChanX}),
		ir.NewLeaf(ir.Attribute{Name: "vView", Channel: ir.ChanX}))
	ratio := ir.NewFunc(ir.OpPower,
		ir.NewFunc(ir.OpSub, ir.NewConst(1), dot),
		ir.NewConst(5))
	e := ir.NewFunc(ir.OpMix, tex("s0"), tex("s1"), ratio)

	layers := Decompose(e)
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(layers))
	}
	if !layers[1].Fresnel {
		t.Error("fresnel ratio not detected")
	}
	if layers[0].Fresnel {
		t.Error("base layer wrongly marked fresnel")
	}
}

func TestResidualUnkStaysRepresented(t *testing.T) {
	e := ir.NewFunc(ir.OpUnk, tex("s0"), ir.NewLeaf(ir.Attribute{Name: "vColor", Channel: ir.ChanX}))
	layers := Decompose(e)
	if len(layers) != 1 {
		t.Fatalf("expected 1 residual layer, got %d", len(layers))
	}
	l := layers[0]
	if l.Blend != BlendMix {
		t.Errorf("residual layer should blend Mix, got %s", l.Blend)
	}
	if v, ok := l.Ratio.ConstValue(); !ok || v != 1 {
		t.Errorf("residual ratio should be 1, got %s", l.Ratio.Key())
	}
	if len(ir.Leaves(l.Value)) != 2 {
		t.Error("residual layer lost leaves")
	}
}

func TestDecomposePreservesLeaves(t *testing.T) {
	weight := ir.NewLeaf(ir.Buffer{Name: "cbMat", Field: "w", Channel: ir.ChanX})
	e := ir.NewFunc(ir.OpMix,
		ir.NewFunc(ir.OpMul, tex("s0"), ir.NewLeaf(ir.Buffer{Name: "cbMat", Field: "tint", Channel: ir.ChanX})),
		tex("s1"),
		weight)

	before := ir.LeafSet(e)
	after := make(map[string]ir.Leaf)
	for _, l := range Decompose(e) {
		for k, v := range ir.LeafSet(l.Value) {
			after[k] = v
		}
		for k, v := range ir.LeafSet(l.Ratio) {
			after[k] = v
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			t.Errorf("leaf %s lost in layering", k)
		}
	}
}
