package yang

import (
	"github.com/jacoelho/yang/internal/yangparse"
	"github.com/jacoelho/yang/pkg/schema"
	"github.com/jacoelho/yang/pkg/xmldoc"
)

// SchemaParser compiles schema text into a model. Implementations report
// malformed input with the load error types of package errors and tripped
// resource guards with *errors.InternalError.
type SchemaParser interface {
	ParseSchema(text string) (*schema.Model, error)
}

// DocumentParser parses instance text into an element tree.
type DocumentParser interface {
	ParseDocument(text string) (*xmldoc.Tree, error)
}

type yangParser struct {
	opts yangparse.Options
}

func newYANGParser(l parseLimits) yangParser {
	return yangParser{opts: yangparse.Options{MaxNesting: l.maxNesting, MaxNodes: l.maxNodes}}
}

func (p yangParser) ParseSchema(text string) (*schema.Model, error) {
	return yangparse.Parse(text, p.opts)
}

type xmlParser struct {
	opts xmldoc.Options
}

func newXMLParser(l parseLimits) xmlParser {
	return xmlParser{opts: xmldoc.Options{MaxDepth: l.maxDepth}}
}

func (p xmlParser) ParseDocument(text string) (*xmldoc.Tree, error) {
	return xmldoc.Parse(text, p.opts)
}
