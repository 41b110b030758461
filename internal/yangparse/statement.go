package yangparse

import (
	"fmt"

	yerrors "github.com/jacoelho/yang/errors"
)

const defaultMaxNesting = 256

// statement is one generic YANG statement: keyword, optional argument and
// optional substatements.
type statement struct {
	keyword string
	arg     string
	hasArg  bool
	subs    []*statement
	line    int
	column  int
}

func (s *statement) sub(keyword string) *statement {
	for _, c := range s.subs {
		if c.keyword == keyword {
			return c
		}
	}
	return nil
}

func (s *statement) subArg(keyword string) (string, bool) {
	c := s.sub(keyword)
	if c == nil {
		return "", false
	}
	return c.arg, true
}

type stmtParser struct {
	lex        *lexer
	maxNesting int
}

// parseStatements parses src into exactly one top-level statement.
func parseStatements(src string, maxNesting int) (*statement, error) {
	p := &stmtParser{lex: newLexer(src), maxNesting: maxNesting}
	if p.maxNesting <= 0 {
		p.maxNesting = defaultMaxNesting
	}
	tok, err := p.lex.peek()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokEOF {
		return nil, p.lex.errorf(tok.line, tok.column, "empty schema")
	}
	root, err := p.parseStatement(0)
	if err != nil {
		return nil, err
	}
	tok, err = p.lex.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokEOF {
		return nil, p.lex.errorf(tok.line, tok.column, fmt.Sprintf("unexpected %s after module", describe(tok)))
	}
	return root, nil
}

func (p *stmtParser) parseStatement(depth int) (*statement, error) {
	kw, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if kw.kind != tokString || kw.quoted {
		return nil, p.lex.errorf(kw.line, kw.column, fmt.Sprintf("expected keyword, got %s", describe(kw)))
	}
	if depth >= p.maxNesting {
		return nil, yerrors.NewInternalf("statements nested deeper than %d at line %d, column %d", p.maxNesting, kw.line, kw.column)
	}
	stmt := &statement{keyword: kw.text, line: kw.line, column: kw.column}

	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokString {
		stmt.arg = tok.text
		stmt.hasArg = true
		if tok, err = p.lex.next(); err != nil {
			return nil, err
		}
	}

	switch tok.kind {
	case tokSemi:
		return stmt, nil
	case tokLBrace:
		for {
			next, err := p.lex.peek()
			if err != nil {
				return nil, err
			}
			switch next.kind {
			case tokRBrace:
				_, _ = p.lex.next()
				return stmt, nil
			case tokEOF:
				return nil, p.lex.errorf(stmt.line, stmt.column, fmt.Sprintf("unclosed block for %q", stmt.keyword))
			}
			child, err := p.parseStatement(depth + 1)
			if err != nil {
				return nil, err
			}
			stmt.subs = append(stmt.subs, child)
		}
	default:
		return nil, p.lex.errorf(tok.line, tok.column, fmt.Sprintf("expected ';' or '{' after %q, got %s", stmt.keyword, describe(tok)))
	}
}

func describe(tok token) string {
	if tok.kind == tokString {
		return fmt.Sprintf("%q", tok.text)
	}
	return tok.kind.String()
}
