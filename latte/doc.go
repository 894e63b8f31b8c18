// Package latte parses clause-based VLIW shader disassembly and lowers
// it into the shared instruction graph.
//
// The input is the disassembler's clause listing: numbered control-flow
// entries introducing ALU, TEX, and export clauses. ALU clauses issue
// instruction groups across the x/y/z/w vector lanes plus the t scalar
// lane; reads within a group see the register state before the group,
// and the PV/PS aliases name the previous group's vector and scalar
// results. Constant-cache operands (KC0[n], C[n]) become buffer leaves,
// registers never written before first read become attribute leaves
// (interpolated inputs land in registers at program start), and SAMPLE
// becomes a texture leaf. Unrecognized opcodes lower to Unk with their
// operands preserved.
package latte
