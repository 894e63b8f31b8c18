package shaderdb

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderdep/ir"
	"github.com/gogpu/shaderdep/layer"
)

func texProgram(texName string) *ShaderProgram {
	return &ShaderProgram{
		Outputs: map[string][]layer.Layer{
			"o0.x": {
				{
					Value: ir.NewLeaf(ir.Texture{
						Name:    texName,
						Channel: ir.ChanX,
						Coords:  []ir.TexCoord{{Name: "vTex0", Channel: ir.ChanX}},
					}),
					Ratio: ir.NewConst(1),
					Blend: layer.BlendMix,
				},
			},
		},
	}
}

func TestInsertLookupOverwrite(t *testing.T) {
	db := New()
	key := ProgramKey{Model: "chr001", Index: 0}

	db.Insert(key, texProgram("s0"))
	p, ok := db.Lookup(key)
	require.True(t, ok)
	require.True(t, p.Equal(texProgram("s0")))

	db.Insert(key, texProgram("s1"))
	p, _ = db.Lookup(key)
	require.True(t, p.Equal(texProgram("s1")), "insert should overwrite")
	require.Equal(t, 1, db.Len())
}

func TestMergeIdenticalNoConflict(t *testing.T) {
	a, b := New(), New()
	key := ProgramKey{Model: "chr001", Index: 0}
	a.Insert(key, texProgram("s0"))
	b.Insert(key, texProgram("s0"))

	conflicts := a.Merge(b)
	require.Empty(t, conflicts, "identical programs must not conflict")
	require.Equal(t, 1, a.Len())
}

func TestMergeConflictLastWriter(t *testing.T) {
	a, b := New(), New()
	key := ProgramKey{Model: "chr001", Index: 0}
	a.Insert(key, texProgram("s0"))
	b.Insert(key, texProgram("s1"))

	conflicts := a.Merge(b)
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	require.Equal(t, key, c.Key)
	require.True(t, c.Kept.Equal(texProgram("s1")), "incoming program wins")
	require.True(t, c.Dropped.Equal(texProgram("s0")), "both contenders are retained in the report")

	got, _ := a.Lookup(key)
	require.True(t, got.Equal(texProgram("s1")))
}

func TestMergeCommutativeAssociative(t *testing.T) {
	mk := func(model string, tex string) *Database {
		db := New()
		db.Insert(ProgramKey{Model: model, Index: 0}, texProgram(tex))
		return db
	}

	// merge(A, merge(B, C))
	left := mk("a", "s0")
	bc := mk("b", "s1")
	require.Empty(t, bc.Merge(mk("c", "s2")))
	require.Empty(t, left.Merge(bc))

	// merge(merge(A, B), C)
	right := mk("a", "s0")
	require.Empty(t, right.Merge(mk("b", "s1")))
	require.Empty(t, right.Merge(mk("c", "s2")))

	require.Equal(t, left.Keys(), right.Keys())
	for _, k := range left.Keys() {
		lp, _ := left.Lookup(k)
		rp, _ := right.Lookup(k)
		require.True(t, lp.Equal(rp), "programs for %s differ", k)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	db := New()
	idx := 3
	db.Insert(ProgramKey{Model: "chr001", Index: 0}, texProgram("s0"))
	db.Insert(ProgramKey{Model: "map042", Index: 2}, &ShaderProgram{
		Outputs: map[string][]layer.Layer{
			"o0.y": {
				{
					Value: ir.NewFunc(ir.OpMul,
						ir.NewLeaf(ir.Buffer{Name: "cbMat", Field: "tint", Index: &idx, Channel: ir.ChanY}),
						ir.NewLeaf(ir.Attribute{Name: "vColor", Channel: ir.ChanY})),
					Ratio:   ir.NewConst(1),
					Blend:   layer.BlendAdd,
					Fresnel: true,
				},
			},
		},
		OutlineWidth: ir.NewConst(0.02),
	})

	var buf bytes.Buffer
	require.NoError(t, db.Encode(&buf))

	back := New()
	require.NoError(t, back.Decode(&buf))

	require.Equal(t, db.Keys(), back.Keys())
	for _, k := range db.Keys() {
		want, _ := db.Lookup(k)
		got, _ := back.Lookup(k)
		if !want.Equal(got) {
			t.Errorf("program %s changed in round trip:\n%s", k, cmp.Diff(want, got))
		}
	}
}

func TestProgramKeyText(t *testing.T) {
	key := ProgramKey{Model: "dir/model.bin", Index: 12}
	text, err := key.MarshalText()
	require.NoError(t, err)

	var back ProgramKey
	require.NoError(t, back.UnmarshalText(text))
	require.Equal(t, key, back)
}
