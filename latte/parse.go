package latte

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/shaderdep/ir"
)

// Parse lowers clause-based VLIW disassembly into an instruction graph.
// Unrecognized instructions lower to Unk nodes; a listing with no
// recognizable clause structure returns an error.
func Parse(source string) (*ir.Graph, error) {
	p := &parser{
		g:      ir.NewGraph(),
		source: source,
		kcache: map[string]string{},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.g, nil
}

type clauseKind uint8

const (
	clauseNone clauseKind = iota
	clauseALU
	clauseTEX
)

type parser struct {
	g      *ir.Graph
	source string

	clause clauseKind
	line   int

	// kcache maps constant-cache banks (KC0, KC1) to the constant
	// buffers bound in the ALU clause header, when annotated.
	kcache map[string]string

	group      []aluEntry
	groupIndex int

	prevVector [4]*ir.NodeRef // PV: previous group's lane results
	prevScalar *ir.NodeRef    // PS: previous group's t-lane result

	clauses int
}

type aluEntry struct {
	lane  byte // 'x','y','z','w','t'
	op    string
	dst   string // "R3.x" or masked "____"
	srcs  []string
	clamp bool
}

func (p *parser) run() error {
	for _, raw := range strings.Split(p.source, "\n") {
		p.line++
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if line == "END_OF_PROGRAM" {
			break
		}
		if p.clauseHeader(line) {
			continue
		}
		switch p.clause {
		case clauseALU:
			p.aluLine(line)
		case clauseTEX:
			p.texLine(line)
		}
	}
	p.commitGroup()
	if p.clauses == 0 {
		return fmt.Errorf("latte: no clause structure found in input")
	}
	return nil
}

// clauseHeader recognizes numbered control-flow entries like
// "01 ALU: ADDR(32) CNT(8) KCACHE0(CB1:0-15)" and export entries like
// "02 EXP_DONE: PIX0, R2". It returns true when the line was consumed.
func (p *parser) clauseHeader(line string) bool {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) < 2 || !allDigits(fields[0]) {
		return false
	}
	kind := strings.TrimSuffix(fields[1], ":")
	switch {
	case kind == "ALU" || strings.HasPrefix(kind, "ALU_"):
		p.commitGroup()
		p.clause = clauseALU
		p.groupIndex = -1
		p.clauses++
		p.parseKCache(fields[2:])
	case kind == "TEX" || kind == "VTX":
		p.commitGroup()
		p.clause = clauseTEX
		p.clauses++
	case kind == "EXP" || kind == "EXP_DONE":
		p.commitGroup()
		p.clause = clauseNone
		p.clauses++
		if len(fields) >= 4 {
			p.export(fields[2], fields[3])
		}
	default:
		// CALL_FS, JUMP, POP and friends carry no dependency data.
		p.commitGroup()
		p.clause = clauseNone
		p.clauses++
	}
	return true
}

// parseKCache picks up KCACHE0(CB1:0-15) style annotations so constant
// bank operands resolve to the bound buffer's name.
func (p *parser) parseKCache(fields []string) {
	for _, f := range fields {
		for i := 0; i < 2; i++ {
			prefix := fmt.Sprintf("KCACHE%d(", i)
			if strings.HasPrefix(f, prefix) {
				inner := strings.TrimPrefix(f, prefix)
				if j := strings.IndexByte(inner, ':'); j > 0 {
					p.kcache["KC"+strconv.Itoa(i)] = inner[:j]
				}
			}
		}
	}
}

// export maps an EXP target to tracked output writes. PIXn targets are
// fragment outputs; POS/PARAM targets carry no fragment dependency data.
func (p *parser) export(target, src string) {
	if !strings.HasPrefix(target, "PIX") {
		return
	}
	idx := strings.TrimPrefix(target, "PIX")
	reg, swizzle := splitRegister(src)
	if swizzle == "" {
		swizzle = "xyzw"
	}
	for i := 0; i < len(swizzle); i++ {
		ch, ok := ir.ParseChannel(swizzle[i])
		if !ok {
			continue
		}
		ref := p.readRegister(reg, ch)
		p.g.RecordWrite("o"+idx+"."+ir.Channel(i&3).String(), ref)
	}
}

func allDigits(s string) bool {
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

// splitRegister splits "R4.xyz" into ("R4", "xyz").
func splitRegister(s string) (string, string) {
	if i := strings.IndexByte(s, '.'); i > 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// readRegister resolves one register channel: the last write if the
// register was written, otherwise an attribute leaf (interpolated
// inputs occupy registers at program start).
func (p *parser) readRegister(reg string, ch ir.Channel) ir.NodeRef {
	if ref, ok := p.g.LastWrite(reg + "." + ch.String()); ok {
		return ref
	}
	return p.g.EmitLeaf(ir.Attribute{Name: reg, Channel: ch})
}
