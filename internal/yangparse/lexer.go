package yangparse

import (
	"strings"
	"unicode/utf8"

	yerrors "github.com/jacoelho/yang/errors"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokString
	tokLBrace
	tokRBrace
	tokSemi
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokString:
		return "string"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokSemi:
		return "';'"
	default:
		return "token"
	}
}

type token struct {
	kind   tokenKind
	text   string
	quoted bool
	line   int
	column int
}

// lexer splits YANG source into tokens. Quoted strings joined with '+' are
// returned as one token.
type lexer struct {
	src    string
	pos    int
	line   int
	column int
	peeked *token
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, column: 1}
}

func (l *lexer) errorf(line, column int, msg string) error {
	return &yerrors.SyntaxError{Source: "schema", Message: msg, Line: line, Column: column}
}

func (l *lexer) peek() (token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.scan()
	if err != nil {
		return token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.scan()
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		i += size
		if r == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
	}
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance(1)
		case strings.HasPrefix(l.src[l.pos:], "//"):
			end := strings.IndexByte(l.src[l.pos:], '\n')
			if end < 0 {
				l.advance(len(l.src) - l.pos)
				return nil
			}
			l.advance(end)
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			line, column := l.line, l.column
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return l.errorf(line, column, "unterminated comment")
			}
			l.advance(end + 4)
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) scan() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line, column: l.column}, nil
	}
	line, column := l.line, l.column
	switch c := l.src[l.pos]; c {
	case '{':
		l.advance(1)
		return token{kind: tokLBrace, text: "{", line: line, column: column}, nil
	case '}':
		l.advance(1)
		return token{kind: tokRBrace, text: "}", line: line, column: column}, nil
	case ';':
		l.advance(1)
		return token{kind: tokSemi, text: ";", line: line, column: column}, nil
	case '"', '\'':
		return l.scanQuotedConcat(line, column)
	default:
		return l.scanUnquoted(line, column)
	}
}

func (l *lexer) scanUnquoted(line, column int) (token, error) {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '{' || c == '}' || c == ';' {
			break
		}
		if c == '"' || c == '\'' {
			return token{}, l.errorf(l.line, l.column, "quote inside unquoted string")
		}
		if strings.HasPrefix(l.src[l.pos:], "//") || strings.HasPrefix(l.src[l.pos:], "/*") {
			break
		}
		l.advance(1)
	}
	text := l.src[start:l.pos]
	if !utf8.ValidString(text) {
		return token{}, l.errorf(line, column, "invalid UTF-8")
	}
	return token{kind: tokString, text: text, line: line, column: column}, nil
}

func (l *lexer) scanQuotedConcat(line, column int) (token, error) {
	var b strings.Builder
	for {
		part, err := l.scanQuoted()
		if err != nil {
			return token{}, err
		}
		b.WriteString(part)

		save := *l
		if err := l.skipSpaceAndComments(); err != nil {
			return token{}, err
		}
		if l.pos >= len(l.src) || l.src[l.pos] != '+' {
			*l = save
			break
		}
		l.advance(1)
		if err := l.skipSpaceAndComments(); err != nil {
			return token{}, err
		}
		if l.pos >= len(l.src) || (l.src[l.pos] != '"' && l.src[l.pos] != '\'') {
			return token{}, l.errorf(l.line, l.column, "expected quoted string after '+'")
		}
	}
	return token{kind: tokString, text: b.String(), quoted: true, line: line, column: column}, nil
}

func (l *lexer) scanQuoted() (string, error) {
	line, column := l.line, l.column
	quote := l.src[l.pos]
	l.advance(1)
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == quote:
			l.advance(1)
			s := b.String()
			if !utf8.ValidString(s) {
				return "", l.errorf(line, column, "invalid UTF-8")
			}
			return s, nil
		case c == '\\' && quote == '"':
			if l.pos+1 >= len(l.src) {
				return "", l.errorf(l.line, l.column, "unterminated escape")
			}
			switch esc := l.src[l.pos+1]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				return "", l.errorf(l.line, l.column, "invalid escape \\"+string(esc))
			}
			l.advance(2)
		default:
			b.WriteByte(c)
			l.advance(1)
		}
	}
	return "", l.errorf(line, column, "unterminated string")
}
