package ir

import (
	"testing"
)

func TestInsertRejectsForwardRef(t *testing.T) {
	g := NewGraph()
	a, err := g.Insert(Value{Leaf: Constant(1)})
	if err != nil {
		t.Fatalf("Insert leaf: %v", err)
	}

	if _, err := g.Insert(Func{Op: OpAdd, Args: []NodeRef{a, NodeRef(99)}}); err == nil {
		t.Fatal("expected error for forward argument reference")
	}

	// A valid func over existing nodes still inserts.
	b, err := g.Insert(Value{Leaf: Constant(2)})
	if err != nil {
		t.Fatalf("Insert leaf: %v", err)
	}
	if _, err := g.Insert(Func{Op: OpAdd, Args: []NodeRef{a, b}}); err != nil {
		t.Fatalf("Insert func: %v", err)
	}
}

func TestAcyclicity(t *testing.T) {
	// Build a diamond and verify no node reaches itself transitively.
	g := NewGraph()
	a := g.EmitLeaf(Attribute{Name: "vColor", Channel: ChanX})
	b := g.EmitLeaf(Constant(2))
	m1 := g.EmitFunc(OpMul, a, b)
	m2 := g.EmitFunc(OpAdd, a, b)
	top := g.EmitFunc(OpAdd, m1, m2)

	var reach func(from NodeRef, target NodeRef) bool
	reach = func(from, target NodeRef) bool {
		f, ok := g.Resolve(from).(Func)
		if !ok {
			return false
		}
		for _, arg := range f.Args {
			if arg == target || reach(arg, target) {
				return true
			}
		}
		return false
	}
	for i := 0; i < g.Len(); i++ {
		if reach(NodeRef(i), NodeRef(i)) {
			t.Errorf("node %d reaches itself", i)
		}
	}
	if !reach(top, a) {
		t.Error("top node should reach leaf a")
	}
}

func TestEmitValueNumbering(t *testing.T) {
	g := NewGraph()
	a1 := g.EmitLeaf(Attribute{Name: "vTex0", Channel: ChanX})
	a2 := g.EmitLeaf(Attribute{Name: "vTex0", Channel: ChanX})
	if a1 != a2 {
		t.Errorf("identical leaves got distinct refs %d, %d", a1, a2)
	}

	b := g.EmitLeaf(Constant(0.5))
	f1 := g.EmitFunc(OpMul, a1, b)
	f2 := g.EmitFunc(OpMul, a1, b)
	if f1 != f2 {
		t.Errorf("identical funcs got distinct refs %d, %d", f1, f2)
	}

	// A different channel is a different leaf.
	c := g.EmitLeaf(Attribute{Name: "vTex0", Channel: ChanY})
	if c == a1 {
		t.Error("distinct leaves were merged")
	}
	if g.Len() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.Len())
	}
}

func TestLastWriteWins(t *testing.T) {
	g := NewGraph()
	first := g.EmitLeaf(Constant(1))
	second := g.EmitLeaf(Constant(2))
	g.RecordWrite("o0.x", first)
	g.RecordWrite("o0.x", second)

	ref, ok := g.LastWrite("o0.x")
	if !ok {
		t.Fatal("o0.x should be written")
	}
	if ref != second {
		t.Errorf("expected last write %d, got %d", second, ref)
	}

	if _, ok := g.LastWrite("o1.x"); ok {
		t.Error("o1.x was never written")
	}

	written := g.Written()
	if len(written) != 1 || written[0] != "o0.x" {
		t.Errorf("Written() = %v, want [o0.x]", written)
	}
}
