package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DumpExpr writes an indented tree rendering of an expression, one node
// per line. Intended for manual reverse-engineering of a single output.
func DumpExpr(w io.Writer, e *Expr) {
	dumpExpr(w, e, 0)
}

func dumpExpr(w io.Writer, e *Expr, depth int) {
	indent := strings.Repeat("  ", depth)
	if e == nil {
		fmt.Fprintf(w, "%s<nil>\n", indent)
		return
	}
	if e.IsLeaf() {
		fmt.Fprintf(w, "%s%s\n", indent, FormatLeaf(e.Leaf))
		return
	}
	fmt.Fprintf(w, "%s%s\n", indent, e.Op)
	for _, a := range e.Args {
		dumpExpr(w, a, depth+1)
	}
}

// FormatLeaf renders a leaf in the compact form used by dumps and
// conflict reports.
func FormatLeaf(l Leaf) string {
	switch v := l.(type) {
	case Constant:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case Attribute:
		return v.Name + "." + v.Channel.String()
	case Buffer:
		s := v.Name + "." + v.Field
		if v.Index != nil {
			s += "[" + strconv.Itoa(*v.Index) + "]"
		}
		return s + "." + v.Channel.String()
	case Texture:
		var sb strings.Builder
		sb.WriteString(v.Name)
		sb.WriteByte('(')
		for i, tc := range v.Coords {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(tc.Name)
			sb.WriteByte('.')
			sb.WriteString(tc.Channel.String())
		}
		sb.WriteString(").")
		sb.WriteString(v.Channel.String())
		return sb.String()
	}
	return fmt.Sprintf("?%T", l)
}

// DumpChain writes the raw instruction dependency chain feeding a node,
// prior to slicing and layering: each reachable arena node on its own
// line in definition order, func arguments shown as %N references.
func (g *Graph) DumpChain(w io.Writer, ref NodeRef) {
	reachable := make(map[NodeRef]bool)
	var mark func(NodeRef)
	mark = func(r NodeRef) {
		if reachable[r] {
			return
		}
		reachable[r] = true
		if f, ok := g.Resolve(r).(Func); ok {
			for _, a := range f.Args {
				mark(a)
			}
		}
	}
	mark(ref)

	for i := 0; i < g.Len(); i++ {
		r := NodeRef(i)
		if !reachable[r] {
			continue
		}
		switch n := g.Resolve(r).(type) {
		case Value:
			fmt.Fprintf(w, "%%%d = %s\n", i, FormatLeaf(n.Leaf))
		case Func:
			fmt.Fprintf(w, "%%%d = %s", i, n.Op)
			for _, a := range n.Args {
				fmt.Fprintf(w, " %%%d", a)
			}
			fmt.Fprintln(w)
		}
	}
}
