package shaderdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// The on-disk format is gzip-compressed JSON: a single object mapping
// "model:index" keys to programs. encoding/json writes map keys in
// sorted order, which keeps the serialized form stable across runs.

// Encode writes the database to w.
func (db *Database) Encode(w io.Writer) error {
	zw := gzip.NewWriter(w)
	enc := json.NewEncoder(zw)
	if err := enc.Encode(db.programs); err != nil {
		zw.Close()
		return fmt.Errorf("shaderdb: encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("shaderdb: encode: %w", err)
	}
	return nil
}

// Decode reads a database from r, replacing the current contents.
func (db *Database) Decode(r io.Reader) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("shaderdb: decode: %w", err)
	}
	defer zr.Close()

	programs := make(map[ProgramKey]*ShaderProgram)
	if err := json.NewDecoder(zr).Decode(&programs); err != nil {
		return fmt.Errorf("shaderdb: decode: %w", err)
	}
	db.programs = programs
	return nil
}

// Save writes the database to a file.
func (db *Database) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("shaderdb: save: %w", err)
	}
	if err := db.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("shaderdb: save: %w", err)
	}
	return nil
}

// Load reads a database from a file.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shaderdb: load: %w", err)
	}
	defer f.Close()

	db := New()
	if err := db.Decode(f); err != nil {
		return nil, err
	}
	return db, nil
}
