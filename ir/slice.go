package ir

// Slice extracts the expression tree a node transitively depends on.
//
// The result is detached from the arena: every reachable node is copied
// into an owned Expr, and a subexpression shared between two argument
// paths is duplicated in each. Nodes not reachable from ref are never
// visited, which is dead-code elimination relative to that output.
func Slice(g *Graph, ref NodeRef) *Expr {
	switch n := g.Resolve(ref).(type) {
	case Value:
		return &Expr{Leaf: n.Leaf}
	case Func:
		args := make([]*Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Slice(g, a)
		}
		return &Expr{Op: n.Op, Args: args}
	}
	return nil
}

// SliceOutput slices the last write to a destination. The second result
// is false when the shader never writes that destination.
func SliceOutput(g *Graph, dest string) (*Expr, bool) {
	ref, ok := g.LastWrite(dest)
	if !ok {
		return nil, false
	}
	return Slice(g, ref), true
}

// FirstAttribute walks a node's dependency chain depth-first and returns
// the first Attribute leaf encountered. Frontends use it to trace a
// computed texture coordinate back to its source input.
func FirstAttribute(g *Graph, ref NodeRef) (Attribute, bool) {
	switch n := g.Resolve(ref).(type) {
	case Value:
		if a, ok := n.Leaf.(Attribute); ok {
			return a, true
		}
	case Func:
		for _, arg := range n.Args {
			if a, ok := FirstAttribute(g, arg); ok {
				return a, true
			}
		}
	}
	return Attribute{}, false
}
