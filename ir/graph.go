package ir

import (
	"fmt"
	"strconv"
)

// NodeRef references a node inside one Graph's arena. Refs are meaningless
// outside the graph that issued them.
type NodeRef uint32

// Node is one entry in the instruction graph arena.
type Node interface {
	node()
}

// Value wraps a terminal leaf dependency.
type Value struct {
	Leaf Leaf
}

func (Value) node() {}

// Func is an operation over previously inserted nodes.
type Func struct {
	Op   Op
	Args []NodeRef
}

func (Func) node() {}

// Graph is an append-only node store for one shader's computation.
//
// Insertion order enforces acyclicity: a node may only reference nodes
// created before it, so no node's transitive argument set can include
// itself. A graph lives for the duration of building and slicing one
// shader and is discarded afterwards.
type Graph struct {
	nodes  []Node
	memo   map[string]NodeRef
	writes map[string]NodeRef
	order  []string // destinations in first-write order

	// Discards records that the shader contains an unconditional discard.
	// It flags the graph as a whole; discard does not fork dependency chains.
	Discards bool
}

// NewGraph creates an empty instruction graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:  make([]Node, 0, 64),
		memo:   make(map[string]NodeRef, 64),
		writes: make(map[string]NodeRef, 8),
	}
}

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Insert appends a node and returns its reference. Every argument
// reference must point at an existing node; a forward or out-of-range
// reference is rejected.
func (g *Graph) Insert(n Node) (NodeRef, error) {
	if f, ok := n.(Func); ok {
		for _, arg := range f.Args {
			if int(arg) >= len(g.nodes) {
				return 0, fmt.Errorf("ir: argument ref %d does not precede node %d", arg, len(g.nodes))
			}
		}
	}
	ref := NodeRef(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return ref, nil
}

// Emit inserts a node with structural value numbering: if an identical
// node (same leaf, or same op over the same argument refs) already
// exists, its reference is reused. Frontends use Emit so that a source
// subexpression referenced twice materializes one graph node.
//
// Emit panics on a forward argument reference; frontends only combine
// refs they already hold, so that is a construction bug, not input error.
func (g *Graph) Emit(n Node) NodeRef {
	key := nodeKey(n)
	if ref, ok := g.memo[key]; ok {
		return ref
	}
	ref, err := g.Insert(n)
	if err != nil {
		panic(err)
	}
	g.memo[key] = ref
	return ref
}

// EmitLeaf is shorthand for Emit(Value{Leaf: l}).
func (g *Graph) EmitLeaf(l Leaf) NodeRef {
	return g.Emit(Value{Leaf: l})
}

// EmitFunc is shorthand for Emit(Func{Op: op, Args: args}).
func (g *Graph) EmitFunc(op Op, args ...NodeRef) NodeRef {
	return g.Emit(Func{Op: op, Args: args})
}

// Resolve returns the node for a reference.
func (g *Graph) Resolve(ref NodeRef) Node {
	return g.nodes[ref]
}

// RecordWrite notes an assignment to a tracked destination. Within
// straight-line code later writes overwrite earlier ones, so only the
// most recent reference is retained per destination.
func (g *Graph) RecordWrite(dest string, ref NodeRef) {
	if _, seen := g.writes[dest]; !seen {
		g.order = append(g.order, dest)
	}
	g.writes[dest] = ref
}

// LastWrite returns the most recent assignment observed for a
// destination, or false if the shader never writes it.
func (g *Graph) LastWrite(dest string) (NodeRef, bool) {
	ref, ok := g.writes[dest]
	return ref, ok
}

// Written returns all written destinations in first-write order.
func (g *Graph) Written() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// nodeKey builds the value-numbering key for a node. Func arguments are
// keyed by reference: argument nodes were themselves deduplicated on
// Emit, so equal refs imply structural equality.
func nodeKey(n Node) string {
	switch v := n.(type) {
	case Value:
		return leafKey(v.Leaf)
	case Func:
		k := "f:" + strconv.Itoa(int(v.Op))
		for _, a := range v.Args {
			k += ":" + strconv.FormatUint(uint64(a), 10)
		}
		return k
	default:
		return fmt.Sprintf("?%T", n)
	}
}
