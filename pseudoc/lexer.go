package pseudoc

import "unicode"

// Lexer tokenizes pseudo-C shader source.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 4 characters of source.
	estTokens := len(source) / 4
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		pos:    0,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	r := l.advance()

	switch r {
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ',':
		l.addToken(TokenComma)
	case ';':
		l.addToken(TokenSemicolon)
	case '+':
		l.addToken(TokenPlus)
	case '-':
		l.addToken(TokenMinus)
	case '*':
		l.addToken(TokenStar)
	case '=':
		l.addToken(TokenEqual)
	case '.':
		// A leading dot can start a float literal (.5).
		if isDigit(l.peek()) {
			return l.number()
		}
		l.addToken(TokenDot)
	case '/':
		if l.match('/') {
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		} else if l.match('*') {
			l.blockComment()
		} else {
			l.addToken(TokenSlash)
		}
	case ' ', '\r', '\t':
		// Skip whitespace.
	case '\n':
		l.line++
		l.column = 1
	default:
		if isDigit(r) {
			return l.number()
		}
		if isIdentStart(r) {
			l.identifier()
			return nil
		}
		return NewSourceErrorf(Position{l.line, l.column - 1}, l.source,
			"unexpected character %q", r)
	}
	return nil
}

func (l *Lexer) number() error {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		save := l.pos
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if isDigit(l.peek()) {
			for isDigit(l.peek()) {
				l.advance()
			}
		} else {
			l.pos = save
		}
	}
	// Decompilers emit C-style float suffixes.
	if l.peek() == 'f' || l.peek() == 'F' {
		l.advance()
	}
	l.addToken(TokenNumber)
	return nil
}

func (l *Lexer) identifier() {
	for isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := l.source[l.start:l.pos]
	if lexeme == "discard" {
		l.addToken(TokenDiscard)
		return
	}
	l.addToken(TokenIdent)
}

func (l *Lexer) blockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.peek() == '\n' {
			l.line++
			l.column = 0
		}
		l.advance()
	}
}

func (l *Lexer) advance() rune {
	r := rune(l.source[l.pos])
	l.pos++
	l.column++
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || rune(l.source[l.pos]) != expected {
		return false
	}
	l.pos++
	l.column++
	return true
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return rune(l.source[l.pos])
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return rune(l.source[l.pos+1])
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) addToken(kind TokenKind) {
	lexeme := l.source[l.start:l.pos]
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: lexeme,
		Line:   l.line,
		Column: l.column - len(lexeme),
	})
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}
