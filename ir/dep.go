package ir

import "strconv"

// Channel identifies one scalar component of a vector quantity.
type Channel uint8

const (
	ChanX Channel = 0
	ChanY Channel = 1
	ChanZ Channel = 2
	ChanW Channel = 3
)

// String returns the component letter ("x", "y", "z", "w").
func (c Channel) String() string {
	switch c {
	case ChanX:
		return "x"
	case ChanY:
		return "y"
	case ChanZ:
		return "z"
	case ChanW:
		return "w"
	}
	return "?"
}

// ParseChannel maps a swizzle letter to a Channel. Both the positional
// (xyzw) and color (rgba) alphabets are accepted.
func ParseChannel(b byte) (Channel, bool) {
	switch b {
	case 'x', 'r':
		return ChanX, true
	case 'y', 'g':
		return ChanY, true
	case 'z', 'b':
		return ChanZ, true
	case 'w', 'a':
		return ChanW, true
	}
	return 0, false
}

// Leaf is a terminal data source. Leaves carry no argument edges; they are
// always sinks of the dependency graph.
type Leaf interface {
	leaf()
}

// Constant is an immediate float value.
type Constant float32

func (Constant) leaf() {}

// Attribute is one scalar channel of a per-vertex or interpolated
// per-fragment input.
type Attribute struct {
	Name    string
	Channel Channel
}

func (Attribute) leaf() {}

// Buffer is one scalar field of a named uniform or storage buffer.
// Index is set for array-indexed fields.
type Buffer struct {
	Name    string
	Field   string
	Index   *int
	Channel Channel
}

func (Buffer) leaf() {}

// Texture is a single sampled channel of a named texture resource,
// together with the coordinate sources feeding the sample.
type Texture struct {
	Name    string
	Channel Channel
	Coords  []TexCoord
}

func (Texture) leaf() {}

// TexCoord names one scalar coordinate source of a texture sample.
// Transform is set when the coordinate is an affine function of the
// named attribute rather than the attribute itself.
type TexCoord struct {
	Name      string
	Channel   Channel
	Transform *CoordTransform
}

// CoordTransform holds scale/offset/rotation parameters applied to a
// texture coordinate before sampling.
type CoordTransform struct {
	Scale    float32
	Offset   float32
	Rotation float32
}

// leafKey returns a structural key unique to the leaf's value.
// Structurally identical leaves produce identical keys.
func leafKey(l Leaf) string {
	switch v := l.(type) {
	case Constant:
		return "c:" + strconv.FormatFloat(float64(v), 'g', -1, 32)
	case Attribute:
		return "a:" + v.Name + "." + v.Channel.String()
	case Buffer:
		k := "b:" + v.Name + "." + v.Field
		if v.Index != nil {
			k += "[" + strconv.Itoa(*v.Index) + "]"
		}
		return k + "." + v.Channel.String()
	case Texture:
		k := "t:" + v.Name + "." + v.Channel.String() + "("
		for i, tc := range v.Coords {
			if i > 0 {
				k += ","
			}
			k += tc.Name + "." + tc.Channel.String()
			if tc.Transform != nil {
				k += "*" + strconv.FormatFloat(float64(tc.Transform.Scale), 'g', -1, 32) +
					"+" + strconv.FormatFloat(float64(tc.Transform.Offset), 'g', -1, 32) +
					"@" + strconv.FormatFloat(float64(tc.Transform.Rotation), 'g', -1, 32)
			}
		}
		return k + ")"
	default:
		return "?"
	}
}
