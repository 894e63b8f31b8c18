// Package shaderdep recovers platform-independent dependency
// descriptions from decompiled GPU shaders.
//
// Given the text output of a third-party decompiler or disassembler,
// the analysis reconstructs, for every fragment output channel, which
// textures, uniform buffer fields, and vertex attributes feed it and
// through which blend operations they combine. The result regenerates
// shading code on another platform, assigns textures to material
// channels, and detects shaders compiled for different hardware that
// implement the same visual effect.
//
// The pipeline per shader is:
//  1. Parse platform text into an instruction graph (pseudoc or latte)
//  2. Slice the graph backward from each written output
//  3. Canonicalize each sliced expression tree
//  4. Collapse blend idioms into ordered layers
//
// Example usage:
//
//	program, err := shaderdep.Analyze(source, shaderdep.SyntaxAuto, shaderdep.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for name, layers := range program.Outputs {
//	    fmt.Println(name, len(layers))
//	}
package shaderdep

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shaderdep/canon"
	"github.com/gogpu/shaderdep/ir"
	"github.com/gogpu/shaderdep/latte"
	"github.com/gogpu/shaderdep/layer"
	"github.com/gogpu/shaderdep/pseudoc"
	"github.com/gogpu/shaderdep/shaderdb"
)

// Syntax selects the input frontend.
type Syntax uint8

const (
	// SyntaxAuto detects the frontend from the input text.
	SyntaxAuto Syntax = iota
	// SyntaxPseudoC is decompiled pseudo-C source.
	SyntaxPseudoC
	// SyntaxClause is clause-based VLIW disassembly.
	SyntaxClause
)

// Options configures analysis.
type Options struct {
	// Outputs restricts analysis to the named destinations
	// ("o0.x", ...). Empty means every output the shader writes.
	Outputs []string

	// Layering enables blend-idiom collapsing. When disabled the
	// program carries flat canonical expressions in Raw instead.
	Layering bool

	// Workers bounds batch parallelism. Zero means GOMAXPROCS.
	Workers int
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Layering: true,
		Workers:  runtime.GOMAXPROCS(0),
	}
}

// Analyze runs the full pipeline on one shader's text.
//
// An output the shader never writes is absent from the result maps; an
// unparseable file returns an error. Unrecognized instructions inside a
// parseable file degrade to Unk operations rather than failing.
func Analyze(source string, syntax Syntax, opts Options) (*shaderdb.ShaderProgram, error) {
	g, err := Parse(source, syntax)
	if err != nil {
		return nil, err
	}

	outputs := opts.Outputs
	if len(outputs) == 0 {
		for _, dest := range g.Written() {
			if isOutput(dest) {
				outputs = append(outputs, dest)
			}
		}
	}

	program := &shaderdb.ShaderProgram{}
	for _, dest := range outputs {
		e, ok := ir.SliceOutput(g, dest)
		if !ok {
			continue
		}
		e = canon.Canonicalize(e)

		if name, ok := specialOutput(dest); ok {
			switch name {
			case "oOutlineWidth":
				program.OutlineWidth = e
			case "oNormalIntensity":
				program.NormalIntensity = e
			}
			continue
		}

		if opts.Layering {
			if program.Outputs == nil {
				program.Outputs = make(map[string][]layer.Layer)
			}
			program.Outputs[dest] = layer.Decompose(e)
		} else {
			if program.Raw == nil {
				program.Raw = make(map[string]*ir.Expr)
			}
			program.Raw[dest] = e
		}
	}
	return program, nil
}

// Parse lowers shader text into an instruction graph without running
// the later pipeline stages. Useful for diagnostic dumps.
func Parse(source string, syntax Syntax) (*ir.Graph, error) {
	if syntax == SyntaxAuto {
		syntax = DetectSyntax(source)
	}
	switch syntax {
	case SyntaxPseudoC:
		g, err := pseudoc.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("pseudoc parse error: %w", err)
		}
		return g, nil
	case SyntaxClause:
		g, err := latte.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("clause parse error: %w", err)
		}
		return g, nil
	}
	return nil, fmt.Errorf("unknown syntax %d", syntax)
}

// DetectSyntax guesses the frontend from the input text. Clause
// listings open with a numbered control-flow entry; pseudo-C is
// statement shaped.
func DetectSyntax(source string) Syntax {
	for _, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 && isDigits(fields[0]) {
			kind := strings.TrimSuffix(fields[1], ":")
			switch {
			case kind == "ALU" || strings.HasPrefix(kind, "ALU_"),
				kind == "TEX", kind == "VTX",
				kind == "EXP", kind == "EXP_DONE",
				kind == "CALL_FS":
				return SyntaxClause
			}
		}
		// The first non-empty line decides.
		break
	}
	return SyntaxPseudoC
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isOutput reports whether a written destination is a tracked shader
// output rather than an internal temp or register.
func isOutput(dest string) bool {
	name, _, ok := strings.Cut(dest, ".")
	if !ok || len(name) < 2 || name[0] != 'o' {
		return false
	}
	if _, special := specialOutputName(name); special {
		return true
	}
	return isDigits(name[1:])
}

// specialOutput maps destinations like "oOutlineWidth.x" to their
// program field. Only the x channel carries the scalar.
func specialOutput(dest string) (string, bool) {
	name, ch, ok := strings.Cut(dest, ".")
	if !ok || ch != "x" {
		return "", false
	}
	return specialOutputName(name)
}

func specialOutputName(name string) (string, bool) {
	switch name {
	case "oOutlineWidth", "oNormalIntensity":
		return name, true
	}
	return "", false
}

// Job names one shader file for batch analysis, together with the
// program key its result is stored under.
type Job struct {
	Path   string
	Syntax Syntax
	Key    shaderdb.ProgramKey
}

// FileError records one failed input of a batch run.
type FileError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// AnalyzeBatch processes shader files in parallel and folds the
// results into one database.
//
// Each file is analyzed in isolation against its own graph; failures
// are collected and reported together rather than aborting the run.
// Results are produced as independent (key, program) pairs and only
// the final fold touches shared state.
func AnalyzeBatch(jobs []Job, opts Options) (*shaderdb.Database, []FileError) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	programs := make([]*shaderdb.ShaderProgram, len(jobs))
	errs := make([]error, len(jobs))

	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		eg.Go(func() error {
			data, err := os.ReadFile(job.Path)
			if err != nil {
				errs[i] = err
				return nil
			}
			p, err := Analyze(string(data), job.Syntax, opts)
			if err != nil {
				errs[i] = err
				return nil
			}
			programs[i] = p
			return nil
		})
	}
	eg.Wait()

	db := shaderdb.New()
	var failures []FileError
	for i, job := range jobs {
		if errs[i] != nil {
			failures = append(failures, FileError{Path: job.Path, Err: errs[i]})
			continue
		}
		db.Insert(job.Key, programs[i])
	}
	return db, failures
}
