package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Expr is a detached, self-contained expression tree produced by slicing.
//
// Exactly one representation is active: a leaf node sets Leaf; a function
// node sets Op and Args. Unlike graph nodes, Expr trees are free of arena
// references and share nothing, which makes them safe to serialize and to
// move across shaders.
type Expr struct {
	Leaf Leaf
	Op   Op
	Args []*Expr
}

// NewLeaf returns a leaf expression node.
func NewLeaf(l Leaf) *Expr {
	return &Expr{Leaf: l}
}

// NewFunc returns a function expression node.
func NewFunc(op Op, args ...*Expr) *Expr {
	return &Expr{Op: op, Args: args}
}

// NewConst returns a constant leaf expression.
func NewConst(v float32) *Expr {
	return &Expr{Leaf: Constant(v)}
}

// IsLeaf reports whether the node is a leaf.
func (e *Expr) IsLeaf() bool {
	return e.Leaf != nil
}

// ConstValue returns the node's value if it is a Constant leaf.
func (e *Expr) ConstValue() (float32, bool) {
	c, ok := e.Leaf.(Constant)
	return float32(c), ok
}

// Clone returns a deep copy of the tree.
func (e *Expr) Clone() *Expr {
	if e == nil {
		return nil
	}
	c := &Expr{Leaf: e.Leaf, Op: e.Op}
	if e.Args != nil {
		c.Args = make([]*Expr, len(e.Args))
		for i, a := range e.Args {
			c.Args[i] = a.Clone()
		}
	}
	return c
}

// Key returns the structural key of the tree. Two trees have equal keys
// exactly when they are structurally equal, so keys double as a stable
// sort order for canonical operand arrangement.
func (e *Expr) Key() string {
	var sb strings.Builder
	e.writeKey(&sb)
	return sb.String()
}

func (e *Expr) writeKey(sb *strings.Builder) {
	if e.IsLeaf() {
		sb.WriteString(leafKey(e.Leaf))
		return
	}
	sb.WriteString("f:")
	sb.WriteString(strconv.Itoa(int(e.Op)))
	sb.WriteByte('(')
	for i, a := range e.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		a.writeKey(sb)
	}
	sb.WriteByte(')')
}

// Equal reports structural equality of two trees.
func Equal(a, b *Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// Leaves collects every leaf reachable in the tree, in depth-first
// argument order. Duplicates are kept; callers needing the leaf set can
// deduplicate by leafKey.
func Leaves(e *Expr) []Leaf {
	var out []Leaf
	var walk func(*Expr)
	walk = func(n *Expr) {
		if n == nil {
			return
		}
		if n.IsLeaf() {
			out = append(out, n.Leaf)
			return
		}
		for _, a := range n.Args {
			walk(a)
		}
	}
	walk(e)
	return out
}

// LeafSet returns the distinct leaves of the tree keyed by structural
// identity. The material-assignment consumer and the no-leaf-loss
// property tests both work from this set.
func LeafSet(e *Expr) map[string]Leaf {
	set := make(map[string]Leaf)
	for _, l := range Leaves(e) {
		set[leafKey(l)] = l
	}
	return set
}

// JSON encoding uses a "kind" discriminator per node so the tagged leaf
// variants round-trip losslessly.

type texCoordJSON struct {
	Name     string   `json:"name"`
	Channel  string   `json:"channel"`
	Scale    *float32 `json:"scale,omitempty"`
	Offset   *float32 `json:"offset,omitempty"`
	Rotation *float32 `json:"rotation,omitempty"`
}

type exprJSON struct {
	Kind    string         `json:"kind"`
	Value   *float32       `json:"value,omitempty"`
	Name    string         `json:"name,omitempty"`
	Field   string         `json:"field,omitempty"`
	Index   *int           `json:"index,omitempty"`
	Channel string         `json:"channel,omitempty"`
	Coords  []texCoordJSON `json:"texcoords,omitempty"`
	Op      string         `json:"op,omitempty"`
	Args    []*Expr        `json:"args,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Expr) MarshalJSON() ([]byte, error) {
	var j exprJSON
	switch l := e.Leaf.(type) {
	case nil:
		j.Kind = "func"
		j.Op = e.Op.String()
		j.Args = e.Args
	case Constant:
		v := float32(l)
		j.Kind = "const"
		j.Value = &v
	case Attribute:
		j.Kind = "attribute"
		j.Name = l.Name
		j.Channel = l.Channel.String()
	case Buffer:
		j.Kind = "buffer"
		j.Name = l.Name
		j.Field = l.Field
		j.Index = l.Index
		j.Channel = l.Channel.String()
	case Texture:
		j.Kind = "texture"
		j.Name = l.Name
		j.Channel = l.Channel.String()
		for _, tc := range l.Coords {
			tj := texCoordJSON{Name: tc.Name, Channel: tc.Channel.String()}
			if tc.Transform != nil {
				s, o, r := tc.Transform.Scale, tc.Transform.Offset, tc.Transform.Rotation
				tj.Scale, tj.Offset, tj.Rotation = &s, &o, &r
			}
			j.Coords = append(j.Coords, tj)
		}
	default:
		return nil, fmt.Errorf("ir: unknown leaf type %T", e.Leaf)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Expr) UnmarshalJSON(data []byte) error {
	var j exprJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	switch j.Kind {
	case "func":
		e.Leaf = nil
		e.Op = ParseOp(j.Op)
		e.Args = j.Args
	case "const":
		if j.Value == nil {
			return fmt.Errorf("ir: const node missing value")
		}
		e.Leaf = Constant(*j.Value)
	case "attribute":
		ch, err := jsonChannel(j.Channel)
		if err != nil {
			return err
		}
		e.Leaf = Attribute{Name: j.Name, Channel: ch}
	case "buffer":
		ch, err := jsonChannel(j.Channel)
		if err != nil {
			return err
		}
		e.Leaf = Buffer{Name: j.Name, Field: j.Field, Index: j.Index, Channel: ch}
	case "texture":
		ch, err := jsonChannel(j.Channel)
		if err != nil {
			return err
		}
		tex := Texture{Name: j.Name, Channel: ch}
		for _, tj := range j.Coords {
			tch, err := jsonChannel(tj.Channel)
			if err != nil {
				return err
			}
			tc := TexCoord{Name: tj.Name, Channel: tch}
			if tj.Scale != nil || tj.Offset != nil || tj.Rotation != nil {
				t := &CoordTransform{}
				if tj.Scale != nil {
					t.Scale = *tj.Scale
				}
				if tj.Offset != nil {
					t.Offset = *tj.Offset
				}
				if tj.Rotation != nil {
					t.Rotation = *tj.Rotation
				}
				tc.Transform = t
			}
			tex.Coords = append(tex.Coords, tc)
		}
		e.Leaf = tex
	default:
		return fmt.Errorf("ir: unknown expression kind %q", j.Kind)
	}
	return nil
}

func jsonChannel(s string) (Channel, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("ir: bad channel %q", s)
	}
	ch, ok := ParseChannel(s[0])
	if !ok {
		return 0, fmt.Errorf("ir: bad channel %q", s)
	}
	return ch, nil
}
