package xmldoc

import (
	"encoding/xml"
	"errors"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	yerrors "github.com/jacoelho/yang/errors"
)

const defaultMaxDepth = 256

// Options bounds document parsing.
type Options struct {
	// MaxDepth limits element nesting; 0 uses the default of 256.
	MaxDepth int
}

// Parse builds a Tree from XML text. Malformed markup is reported as a
// *errors.SyntaxError; nesting beyond MaxDepth as a *errors.InternalError.
func Parse(src string, opts Options) (*Tree, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	pos := newPositions(src)
	if !utf8.ValidString(src) {
		return nil, syntaxError(pos, invalidUTF8Offset(src), "invalid UTF-8")
	}

	dec := xml.NewDecoder(strings.NewReader(src))
	dec.Strict = true

	tree := &Tree{}
	var (
		stack []*Node
		texts []*strings.Builder
	)
	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fromDecoderError(dec, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) >= maxDepth {
				return nil, yerrors.NewInternalf("document nesting exceeds max depth %d", maxDepth)
			}
			line, col := pos.at(int(start))
			n := &Node{Name: Name{Space: t.Name.Space, Local: t.Name.Local}, Line: line, Column: col}
			if len(stack) == 0 {
				tree.Roots = append(tree.Roots, n)
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.EndElement:
			last := len(stack) - 1
			stack[last].Text = texts[last].String()
			stack = stack[:last]
			texts = texts[:last]
		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, syntaxError(pos, int(start), "character data outside the root element")
				}
				continue
			}
			texts[len(texts)-1].Write(t)
		case xml.Directive:
			return nil, syntaxError(pos, int(start), "document type declarations are not allowed")
		case xml.ProcInst, xml.Comment:
		}
	}
	if len(tree.Roots) == 0 {
		return nil, &yerrors.SyntaxError{Source: "document", Message: "no root element"}
	}
	return tree, nil
}

func fromDecoderError(dec *xml.Decoder, err error) error {
	line, col := dec.InputPos()
	msg := err.Error()
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		msg = syn.Msg
	}
	return &yerrors.SyntaxError{Source: "document", Message: msg, Line: line, Column: col}
}

func syntaxError(pos positions, offset int, msg string) error {
	line, col := pos.at(offset)
	return &yerrors.SyntaxError{Source: "document", Message: msg, Line: line, Column: col}
}

func invalidUTF8Offset(src string) int {
	for i, r := range src {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(src[i:]); size == 1 {
				return i
			}
		}
	}
	return 0
}

// positions maps byte offsets in the source to 1-based line and column.
type positions struct {
	src        string
	lineStarts []int
}

func newPositions(src string) positions {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return positions{src: src, lineStarts: starts}
}

func (p positions) at(offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(p.src) {
		offset = len(p.src)
	}
	i := sort.Search(len(p.lineStarts), func(i int) bool { return p.lineStarts[i] > offset }) - 1
	lineStart := p.lineStarts[i]
	return i + 1, utf8.RuneCountInString(p.src[lineStart:offset]) + 1
}
