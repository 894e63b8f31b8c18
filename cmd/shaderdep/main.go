// Command shaderdep analyzes decompiled shader dumps and maintains
// shader dependency databases.
//
// Usage:
//
//	shaderdep analyze [options] <input...>
//	shaderdep dump [options] <input>
//	shaderdep merge -o <out.db> <in.db...>
//
// Examples:
//
//	shaderdep analyze -o chr001.db -model chr001 ps0.txt ps1.txt
//	shaderdep dump -output o0.x shader.txt
//	shaderdep merge -o all.db chr001.db map042.db
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/shaderdep"
	"github.com/gogpu/shaderdep/canon"
	"github.com/gogpu/shaderdep/ir"
	"github.com/gogpu/shaderdep/shaderdb"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "analyze":
		runAnalyze(os.Args[2:])
	case "dump":
		runDump(os.Args[2:])
	case "merge":
		runMerge(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: shaderdep <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  analyze   Analyze shader dumps into a database\n")
	fmt.Fprintf(os.Stderr, "  dump      Print dependency trees for one shader\n")
	fmt.Fprintf(os.Stderr, "  merge     Merge databases, last input wins on conflict\n")
}

func parseSyntax(s string) (shaderdep.Syntax, error) {
	switch s {
	case "auto":
		return shaderdep.SyntaxAuto, nil
	case "pseudoc":
		return shaderdep.SyntaxPseudoC, nil
	case "clause":
		return shaderdep.SyntaxClause, nil
	}
	return 0, fmt.Errorf("unknown syntax %q (want auto, pseudoc, or clause)", s)
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	output := fs.String("o", "shaders.db", "output database file")
	model := fs.String("model", "", "model name for database keys (default: input file stem)")
	syntaxName := fs.String("syntax", "auto", "input syntax: auto, pseudoc, clause")
	raw := fs.Bool("raw", false, "store flat expressions instead of layers")
	workers := fs.Int("workers", 0, "parallel workers (0 = all CPUs)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input files specified")
		os.Exit(1)
	}
	syntax, err := parseSyntax(*syntaxName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	jobs := make([]shaderdep.Job, 0, fs.NArg())
	for i, path := range fs.Args() {
		m := *model
		if m == "" {
			m = stem(path)
		}
		jobs = append(jobs, shaderdep.Job{
			Path:   path,
			Syntax: syntax,
			Key:    shaderdb.ProgramKey{Model: m, Index: i},
		})
	}

	opts := shaderdep.DefaultOptions()
	opts.Layering = !*raw
	opts.Workers = *workers

	db, failures := shaderdep.AnalyzeBatch(jobs, opts)
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "Error: %v\n", f)
	}

	if err := db.Save(*output); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing database: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Analyzed %d shaders into %s (%d failed)\n", db.Len(), *output, len(failures))
	if len(failures) > 0 {
		os.Exit(1)
	}
}

func runDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	outputName := fs.String("output", "", "dump only the named output (default: all)")
	syntaxName := fs.String("syntax", "auto", "input syntax: auto, pseudoc, clause")
	chain := fs.Bool("chain", false, "also print the raw instruction chain")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: dump takes exactly one input file")
		os.Exit(1)
	}
	syntax, err := parseSyntax(*syntaxName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	g, err := shaderdep.Parse(string(source), syntax)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dests := g.Written()
	if *outputName != "" {
		dests = []string{*outputName}
	}
	for _, dest := range dests {
		ref, ok := g.LastWrite(dest)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: output %s is never written\n", dest)
			os.Exit(1)
		}
		fmt.Printf("%s:\n", dest)
		if *chain {
			g.DumpChain(os.Stdout, ref)
		}
		e := canon.Canonicalize(ir.Slice(g, ref))
		ir.DumpExpr(os.Stdout, e)
		fmt.Println()
	}
}

func runMerge(args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	output := fs.String("o", "", "output database file (required)")
	fs.Parse(args)

	if *output == "" || fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: merge requires -o and at least one input database")
		os.Exit(1)
	}

	merged := shaderdb.New()
	for _, path := range fs.Args() {
		db, err := shaderdb.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, c := range merged.Merge(db) {
			fmt.Fprintf(os.Stderr, "conflict: %s replaced by entry from %s\n", c.Key, path)
		}
	}

	if err := merged.Save(*output); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing database: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Merged %d inputs into %s (%d programs)\n", fs.NArg(), *output, merged.Len())
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
