package pseudoc

import (
	"strconv"
	"strings"
)

// Parser parses a token stream into statements.
//
// Recovery is per statement: a statement that fails to parse becomes a
// BadStmt and parsing resumes after the next semicolon, so one bad line
// never aborts the shader.
type Parser struct {
	tokens []Token
	pos    int
	source string
}

// NewParser creates a parser over the given tokens.
func NewParser(tokens []Token, source string) *Parser {
	return &Parser{tokens: tokens, source: source}
}

// Parse consumes the whole token stream. It fails only when the file has
// no parseable structure at all.
func (p *Parser) Parse() ([]Stmt, error) {
	var stmts []Stmt
	bad := 0
	for !p.check(TokenEOF) {
		// Skip stray braces from block structure the analysis ignores.
		if p.check(TokenLeftBrace) || p.check(TokenRightBrace) {
			p.advance()
			continue
		}
		s := p.statement()
		if _, isBad := s.(BadStmt); isBad {
			bad++
		}
		stmts = append(stmts, s)
	}
	if len(stmts) > 0 && bad == len(stmts) {
		return nil, NewSourceErrorf(p.peek().pos(), p.source,
			"no parseable statements in input")
	}
	return stmts, nil
}

func (p *Parser) statement() Stmt {
	pos := p.peek().pos()

	if p.match(TokenDiscard) {
		p.match(TokenSemicolon)
		return DiscardStmt{Pos: pos}
	}

	dest, ok := p.ref()
	if !ok {
		p.sync()
		return BadStmt{Pos: pos}
	}
	if !p.match(TokenEqual) {
		// Could be a declaration (`float temp0;`) or other statement
		// form that carries no dependency information.
		p.sync()
		return BadStmt{Pos: pos}
	}
	expr, ok := p.expression()
	if !ok || !p.match(TokenSemicolon) {
		p.sync()
		return BadStmt{Dest: &dest, Pos: pos}
	}
	return AssignStmt{Dest: dest, Expr: expr, Pos: pos}
}

// sync skips tokens until just past the next semicolon.
func (p *Parser) sync() {
	for !p.check(TokenEOF) {
		if p.advance().Kind == TokenSemicolon {
			return
		}
	}
}

// expression parses additive precedence.
func (p *Parser) expression() (Expr, bool) {
	left, ok := p.term()
	if !ok {
		return nil, false
	}
	for {
		var op byte
		switch {
		case p.match(TokenPlus):
			op = '+'
		case p.match(TokenMinus):
			op = '-'
		default:
			return left, true
		}
		right, ok := p.term()
		if !ok {
			return nil, false
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
}

// term parses multiplicative precedence.
func (p *Parser) term() (Expr, bool) {
	left, ok := p.unary()
	if !ok {
		return nil, false
	}
	for {
		var op byte
		switch {
		case p.match(TokenStar):
			op = '*'
		case p.match(TokenSlash):
			op = '/'
		default:
			return left, true
		}
		right, ok := p.unary()
		if !ok {
			return nil, false
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) unary() (Expr, bool) {
	if p.match(TokenMinus) {
		operand, ok := p.unary()
		if !ok {
			return nil, false
		}
		return UnaryExpr{Op: '-', Operand: operand}, true
	}
	return p.primary()
}

func (p *Parser) primary() (Expr, bool) {
	switch {
	case p.check(TokenNumber):
		tok := p.advance()
		v, err := strconv.ParseFloat(strings.TrimRight(tok.Lexeme, "fF"), 32)
		if err != nil {
			return nil, false
		}
		return NumberExpr{Value: float32(v)}, true

	case p.check(TokenLeftParen):
		p.advance()
		e, ok := p.expression()
		if !ok || !p.match(TokenRightParen) {
			return nil, false
		}
		return e, true

	case p.check(TokenIdent):
		if p.peekNext().Kind == TokenLeftParen {
			return p.call()
		}
		r, ok := p.ref()
		if !ok {
			return nil, false
		}
		return r, true
	}
	return nil, false
}

func (p *Parser) call() (Expr, bool) {
	name := p.advance().Lexeme
	pos := p.prev().pos()
	if !p.match(TokenLeftParen) {
		return nil, false
	}
	var args []Expr
	if !p.check(TokenRightParen) {
		for {
			a, ok := p.expression()
			if !ok {
				return nil, false
			}
			args = append(args, a)
			if !p.match(TokenComma) {
				break
			}
		}
	}
	if !p.match(TokenRightParen) {
		return nil, false
	}
	c := CallExpr{Name: name, Args: args, Pos: pos}
	// Result swizzle: texture(s0, uv).x
	if p.check(TokenDot) && p.peekNext().Kind == TokenIdent && isSwizzle(p.peekNext().Lexeme) {
		p.advance()
		c.Swizzle = p.advance().Lexeme
	}
	return c, true
}

// ref parses an identifier with its postfix access chain.
func (p *Parser) ref() (Ref, bool) {
	if !p.check(TokenIdent) {
		return Ref{}, false
	}
	r := Ref{Name: p.advance().Lexeme}

	// Accessors: .field, [index], .swizzle. The trailing all-component
	// accessor is the swizzle; anything earlier is a field path.
	for {
		if p.check(TokenDot) && p.peekNext().Kind == TokenIdent {
			p.advance()
			part := p.advance().Lexeme
			if isSwizzle(part) && !(p.check(TokenDot) || p.check(TokenLeftBracket)) {
				r.Swizzle = part
				return r, true
			}
			if r.Field == "" {
				r.Field = part
			} else {
				r.Field += "." + part
			}
			continue
		}
		if p.check(TokenLeftBracket) && p.peekNext().Kind == TokenNumber {
			p.advance()
			idx, err := strconv.Atoi(p.advance().Lexeme)
			if err != nil || !p.match(TokenRightBracket) {
				return Ref{}, false
			}
			r.Index = &idx
			continue
		}
		return r, true
	}
}

// isSwizzle reports whether a lexeme is a pure component selector in
// either the xyzw or rgba alphabet.
func isSwizzle(s string) bool {
	if len(s) == 0 || len(s) > 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if _, ok := swizzleIndex(s[i]); !ok {
			return false
		}
	}
	return true
}

// swizzleIndex maps a swizzle letter to its component position.
func swizzleIndex(b byte) (int, bool) {
	switch b {
	case 'x', 'r':
		return 0, true
	case 'y', 'g':
		return 1, true
	case 'z', 'b':
		return 2, true
	case 'w', 'a':
		return 3, true
	}
	return 0, false
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekNext() Token {
	if p.pos+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) prev() Token {
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if t.Kind != TokenEOF {
		p.pos++
	}
	return t
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (t Token) pos() Position {
	return Position{Line: t.Line, Column: t.Column}
}
