// Package ir defines the shared instruction-graph representation for
// shader dependency analysis.
//
// Both frontends (pseudoc, latte) lower platform-specific shader text into
// the same vocabulary: Leaf values (constants, vertex attributes, uniform
// buffer fields, texture samples) combined by Func nodes in an append-only
// Graph arena. Backward slicing from an output's last write produces a
// detached Expr tree that the canonicalizer and layering engine operate on.
package ir
