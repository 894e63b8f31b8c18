// Package layer collapses canonical expression trees into ordered blend
// layers.
//
// A layer is one contribution to an output channel: a value expression,
// a ratio weighting it, and the blend operation combining it with the
// accumulator carried from the previous layer. Recognized idioms (mix,
// additive and multiplicative blends, overlay, fresnel-weighted terms)
// become named layers; whatever is left stays as a single residual layer
// so the output is always represented.
package layer

import (
	"fmt"

	"github.com/gogpu/shaderdep/ir"
)

// BlendMode names the operation blending a layer into the accumulator.
type BlendMode uint8

const (
	BlendMix BlendMode = iota
	BlendAdd
	BlendSub
	BlendMul
	BlendOverlay
)

var blendNames = [...]string{
	BlendMix:     "Mix",
	BlendAdd:     "Add",
	BlendSub:     "Sub",
	BlendMul:     "Mul",
	BlendOverlay: "Overlay",
}

// String returns the blend mode name.
func (m BlendMode) String() string {
	if int(m) < len(blendNames) {
		return blendNames[m]
	}
	return "Mix"
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	for i, n := range blendNames {
		if n == string(text) {
			*m = BlendMode(i)
			return nil
		}
	}
	return fmt.Errorf("layer: unknown blend mode %q", text)
}

// Layer is one blend contribution in an output's ordered chain. Layers
// apply in order; each blends Value into the running accumulator using
// Blend weighted by Ratio. The accumulator starts from the first layer's
// value.
type Layer struct {
	Value   *ir.Expr  `json:"value"`
	Ratio   *ir.Expr  `json:"ratio"`
	Blend   BlendMode `json:"blend"`
	Fresnel bool      `json:"fresnel,omitempty"`
}

// Equal reports structural equality of two layers.
func (l Layer) Equal(o Layer) bool {
	return l.Blend == o.Blend && l.Fresnel == o.Fresnel &&
		ir.Equal(l.Value, o.Value) && ir.Equal(l.Ratio, o.Ratio)
}

// LayersEqual reports element-wise structural equality of two chains.
func LayersEqual(a, b []Layer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
