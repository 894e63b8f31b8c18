package latte

import (
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/shaderdep/ir"
)

// aluOps maps recognized ALU opcodes to graph operations. Anything not
// listed (and not MOV or DOT4, which are handled structurally) lowers
// to Unk with its operands preserved.
var aluOps = map[string]ir.Op{
	"ADD":            ir.OpAdd,
	"MUL":            ir.OpMul,
	"MUL_IEEE":       ir.OpMul,
	"MULADD":         ir.OpFma,
	"MULADD_IEEE":    ir.OpFma,
	"MAX":            ir.OpMax,
	"MAX_DX10":       ir.OpMax,
	"MIN":            ir.OpMin,
	"MIN_DX10":       ir.OpMin,
	"FLOOR":          ir.OpFloor,
	"FRACT":          ir.OpFract,
	"RECIP_IEEE":     ir.OpRcp,
	"RECIP_FF":       ir.OpRcp,
	"RECIPSQRT_IEEE": ir.OpRsq,
	"RECIPSQRT_FF":   ir.OpRsq,
	"SQRT_IEEE":      ir.OpSqrt,
}

// aluLine parses one ALU instruction slot, e.g.
//
//	0  x: MUL  R0.x, R1.x, KC0[0].x
//	   y: MOV  R0.y, 1.0f
//	   t: MULADD  R2.x, R1.w, 0.5f, PV0.x CLAMP
func (p *parser) aluLine(line string) {
	line = normalizeLiterals(line)
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) == 0 {
		return
	}

	// A leading number opens a new instruction group.
	if allDigits(fields[0]) {
		idx, _ := strconv.Atoi(fields[0])
		if idx != p.groupIndex {
			p.commitGroup()
			p.groupIndex = idx
		}
		fields = fields[1:]
	}
	if len(fields) < 2 || len(fields[0]) != 2 || fields[0][1] != ':' {
		return
	}
	lane := fields[0][0]
	entry := aluEntry{lane: lane, op: fields[1]}
	rest := fields[2:]
	if n := len(rest); n > 0 && rest[n-1] == "CLAMP" {
		entry.clamp = true
		rest = rest[:n-1]
	}
	if len(rest) == 0 {
		return
	}
	entry.dst = rest[0]
	entry.srcs = rest[1:]
	p.group = append(p.group, entry)
}

// commitGroup lowers a finished ALU instruction group. All sources are
// resolved against the register state before the group; writes and the
// PV/PS aliases take effect together afterwards.
func (p *parser) commitGroup() {
	if len(p.group) == 0 {
		return
	}
	group := p.group
	p.group = nil

	dot := p.lowerDot4(group)

	type write struct {
		dst  string
		node ir.NodeRef
	}
	var writes []write
	var newVector [4]*ir.NodeRef
	var newScalar *ir.NodeRef

	for _, e := range group {
		var node ir.NodeRef
		switch {
		case isDot4(e.op):
			if dot == nil {
				continue
			}
			node = *dot
		case e.op == "MOV":
			if len(e.srcs) != 1 {
				continue
			}
			node = p.resolveSource(e.srcs[0])
		default:
			args := make([]ir.NodeRef, len(e.srcs))
			for i, s := range e.srcs {
				args[i] = p.resolveSource(s)
			}
			op, known := aluOps[e.op]
			if !known {
				op = ir.OpUnk
			}
			node = p.g.EmitFunc(op, args...)
		}
		if e.clamp {
			node = p.g.EmitFunc(ir.OpSaturate, node)
		}

		if e.dst != "____" && e.dst != "" {
			writes = append(writes, write{dst: e.dst, node: node})
		}
		if ch, ok := ir.ParseChannel(e.lane); ok && e.lane != 't' {
			n := node
			newVector[ch] = &n
		}
		if e.lane == 't' {
			n := node
			newScalar = &n
		}
	}

	for _, w := range writes {
		reg, swizzle := splitRegister(w.dst)
		if swizzle == "" {
			continue
		}
		if ch, ok := ir.ParseChannel(swizzle[0]); ok {
			p.g.RecordWrite(reg+"."+ch.String(), w.node)
		}
	}
	for ch, n := range newVector {
		if n != nil {
			p.prevVector[ch] = n
		}
	}
	if newScalar != nil {
		p.prevScalar = newScalar
	}
}

func isDot4(op string) bool {
	return op == "DOT4" || op == "DOT4_IEEE"
}

// lowerDot4 combines a group's DOT4 lane slots into one Dot node over
// the flattened lane operands: a.x..a.w, b.x..b.w.
func (p *parser) lowerDot4(group []aluEntry) *ir.NodeRef {
	var first, second []ir.NodeRef
	for _, e := range group {
		if !isDot4(e.op) || len(e.srcs) != 2 {
			continue
		}
		first = append(first, p.resolveSource(e.srcs[0]))
		second = append(second, p.resolveSource(e.srcs[1]))
	}
	if len(first) == 0 {
		return nil
	}
	node := p.g.EmitFunc(ir.OpDot, append(first, second...)...)
	return &node
}

// resolveSource lowers one ALU operand.
func (p *parser) resolveSource(tok string) ir.NodeRef {
	if tok == "" {
		return p.g.EmitFunc(ir.OpUnk)
	}
	if tok[0] == '-' {
		return p.g.EmitFunc(ir.OpNeg, p.resolveSource(tok[1:]))
	}
	if tok[0] == '|' && strings.HasSuffix(tok, "|") && len(tok) > 2 {
		return p.g.EmitFunc(ir.OpAbs, p.resolveSource(tok[1:len(tok)-1]))
	}

	// Previous vector/scalar result aliases.
	if strings.HasPrefix(tok, "PV") {
		_, swizzle := splitRegister(tok)
		if len(swizzle) == 1 {
			if ch, ok := ir.ParseChannel(swizzle[0]); ok {
				if n := p.prevVector[ch]; n != nil {
					return *n
				}
			}
		}
		return p.g.EmitFunc(ir.OpUnk)
	}
	if strings.HasPrefix(tok, "PS") {
		if p.prevScalar != nil {
			return *p.prevScalar
		}
		return p.g.EmitFunc(ir.OpUnk)
	}

	// Constant-cache banks KC0[n].ch / KC1[n].ch and the constant file
	// C[n].ch become buffer leaves.
	for _, bank := range []string{"KC0", "KC1", "C"} {
		if strings.HasPrefix(tok, bank+"[") {
			if leaf, ok := p.constOperand(bank, tok); ok {
				return p.g.EmitLeaf(leaf)
			}
			return p.g.EmitFunc(ir.OpUnk)
		}
	}

	// General-purpose register.
	if tok[0] == 'R' && len(tok) > 1 && tok[1] >= '0' && tok[1] <= '9' {
		reg, swizzle := splitRegister(tok)
		if len(swizzle) == 1 {
			if ch, ok := ir.ParseChannel(swizzle[0]); ok {
				return p.readRegister(reg, ch)
			}
		}
		return p.readRegister(reg, ir.ChanX)
	}

	// Inline literals: 1.0f, 0.5, 2.
	if v, err := strconv.ParseFloat(strings.TrimRight(tok, "fF"), 32); err == nil {
		return p.g.EmitLeaf(ir.Constant(float32(v)))
	}

	return p.g.EmitFunc(ir.OpUnk)
}

// constOperand parses "KC0[3].x" into a buffer leaf, mapping the bank
// through any KCACHE header annotation.
func (p *parser) constOperand(bank, tok string) (ir.Buffer, bool) {
	rest := strings.TrimPrefix(tok, bank+"[")
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return ir.Buffer{}, false
	}
	idx, err := strconv.Atoi(rest[:end])
	if err != nil {
		return ir.Buffer{}, false
	}
	ch := ir.ChanX
	if sel := rest[end:]; len(sel) >= 3 && sel[1] == '.' {
		if c, ok := ir.ParseChannel(sel[2]); ok {
			ch = c
		}
	}
	name := bank
	if bound, ok := p.kcache[bank]; ok {
		name = bound
	}
	return ir.Buffer{Name: name, Field: "c", Index: &idx, Channel: ch}, true
}

// normalizeLiterals rewrites literal slots of the form
// "(0x3F800000, 1.0f).x" (or bare "(0x3F800000).x") into a plain float
// token so operand splitting stays comma-based.
func normalizeLiterals(line string) string {
	for {
		start := strings.Index(line, "(0x")
		if start < 0 {
			return line
		}
		end := strings.IndexByte(line[start:], ')')
		if end < 0 {
			return line
		}
		end += start
		inner := line[start+1 : end]
		tail := end + 1
		// Drop a trailing component selector on the literal slot.
		if tail+1 < len(line) && line[tail] == '.' {
			j := tail + 1
			for j < len(line) && isSwizzleByte(line[j]) {
				j++
			}
			tail = j
		}

		var repl string
		if comma := strings.IndexByte(inner, ','); comma >= 0 {
			repl = strings.TrimSpace(inner[comma+1:])
		} else if bits, err := strconv.ParseUint(strings.TrimPrefix(inner, "0x"), 16, 32); err == nil {
			f := math.Float32frombits(uint32(bits))
			repl = strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
		line = line[:start] + repl + line[tail:]
	}
}

func isSwizzleByte(b byte) bool {
	switch b {
	case 'x', 'y', 'z', 'w', 'r', 'g', 'b', 'a':
		return true
	}
	return false
}
