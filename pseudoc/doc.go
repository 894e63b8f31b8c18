// Package pseudoc parses decompiled pseudo-C shader source and lowers it
// into the shared instruction graph.
//
// The input is the statement-level output of a third-party decompiler:
// straight-line assignments to temp registers and outputs, uniform-block
// field accesses, texture sampling calls, and unconditional discard.
// Control flow beyond that is not modeled. A statement the frontend
// cannot classify lowers to an Unk node so partial graphs stay usable;
// a structurally unparseable file fails with a parse error.
package pseudoc
