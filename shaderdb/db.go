// Package shaderdb stores recovered shader programs keyed by their
// source identity, and merges databases built by independent runs.
package shaderdb

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/shaderdep/ir"
	"github.com/gogpu/shaderdep/layer"
)

// ProgramKey identifies one shader program's analysis result: the model
// or source file it came from plus the program index within it.
type ProgramKey struct {
	Model string
	Index int
}

// String returns "model:index".
func (k ProgramKey) String() string {
	return k.Model + ":" + strconv.Itoa(k.Index)
}

// MarshalText implements encoding.TextMarshaler so keys serialize as
// JSON map keys.
func (k ProgramKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ProgramKey) UnmarshalText(text []byte) error {
	s := string(text)
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return fmt.Errorf("shaderdb: bad program key %q", s)
	}
	idx, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return fmt.Errorf("shaderdb: bad program key %q", s)
	}
	k.Model = s[:i]
	k.Index = idx
	return nil
}

// ShaderProgram is the recovered per-output dependency description of
// one shader. Outputs holds the layered form; Raw holds the older flat
// expression form for databases written before layering existed.
type ShaderProgram struct {
	Outputs map[string][]layer.Layer `json:"outputs,omitempty"`
	Raw     map[string]*ir.Expr      `json:"raw,omitempty"`

	OutlineWidth    *ir.Expr `json:"outline_width,omitempty"`
	NormalIntensity *ir.Expr `json:"normal_intensity,omitempty"`
}

// Equal reports structural equality of two programs.
func (p *ShaderProgram) Equal(o *ShaderProgram) bool {
	if p == nil || o == nil {
		return p == o
	}
	if len(p.Outputs) != len(o.Outputs) || len(p.Raw) != len(o.Raw) {
		return false
	}
	for name, layers := range p.Outputs {
		other, ok := o.Outputs[name]
		if !ok || !layer.LayersEqual(layers, other) {
			return false
		}
	}
	for name, e := range p.Raw {
		other, ok := o.Raw[name]
		if !ok || !ir.Equal(e, other) {
			return false
		}
	}
	return ir.Equal(p.OutlineWidth, o.OutlineWidth) &&
		ir.Equal(p.NormalIntensity, o.NormalIntensity)
}

// Database maps program keys to recovered programs for one batch run.
// It is a plain value threaded through the batch driver; only the final
// merge step ever sees more than one shader's data.
type Database struct {
	programs map[ProgramKey]*ShaderProgram
}

// New creates an empty database.
func New() *Database {
	return &Database{programs: make(map[ProgramKey]*ShaderProgram)}
}

// Len returns the number of stored programs.
func (db *Database) Len() int {
	return len(db.programs)
}

// Insert stores a program, overwriting any previous entry for the key.
func (db *Database) Insert(key ProgramKey, program *ShaderProgram) {
	db.programs[key] = program
}

// Lookup returns the program for a key.
func (db *Database) Lookup(key ProgramKey) (*ShaderProgram, bool) {
	p, ok := db.programs[key]
	return p, ok
}

// Keys returns all keys in stable sorted order.
func (db *Database) Keys() []ProgramKey {
	keys := make([]ProgramKey, 0, len(db.programs))
	for k := range db.programs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Model != keys[j].Model {
			return keys[i].Model < keys[j].Model
		}
		return keys[i].Index < keys[j].Index
	})
	return keys
}

// Conflict records a merge disagreement: two databases held structurally
// different programs under the same key. Both contenders are retained
// for inspection; Kept is the one the database now holds.
type Conflict struct {
	Key     ProgramKey
	Kept    *ShaderProgram
	Dropped *ShaderProgram
}

// Merge folds another database into this one by key-wise union.
//
// On disjoint or structurally identical keys the operation is
// commutative and associative. When both sides hold different programs
// for a key, the incoming program wins (last-writer policy: the batch
// driver merges inputs left to right, so "last" is the rightmost input)
// and the conflict is returned for reporting.
func (db *Database) Merge(other *Database) []Conflict {
	var conflicts []Conflict
	for _, key := range other.Keys() {
		incoming := other.programs[key]
		existing, ok := db.programs[key]
		if ok && !existing.Equal(incoming) {
			conflicts = append(conflicts, Conflict{
				Key:     key,
				Kept:    incoming,
				Dropped: existing,
			})
		}
		db.programs[key] = incoming
	}
	return conflicts
}
