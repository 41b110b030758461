package yang

import (
	"fmt"

	"github.com/rs/zerolog"
)

type intOption struct {
	value int
	set   bool
}

func (o intOption) resolved() int {
	if !o.set {
		return 0
	}
	return o.value
}

// Options configures schema compilation and document validation.
// The zero value is valid and selects every default.
type Options struct {
	maxDepth       intOption
	maxNesting     intOption
	maxNodes       intOption
	unknownNodes   UnknownNodePolicy
	cache          bool
	logger         *zerolog.Logger
	recorder       Recorder
	schemaParser   SchemaParser
	documentParser DocumentParser
}

type resolvedOptions struct {
	limits         parseLimits
	unknownNodes   UnknownNodePolicy
	cache          bool
	logger         zerolog.Logger
	recorder       Recorder
	schemaParser   SchemaParser
	documentParser DocumentParser
	builtinSchema  bool
}

// NewOptions returns a default, valid options value.
func NewOptions() Options {
	return Options{}
}

// Validate validates option values.
func (o Options) Validate() error {
	_, err := o.withDefaults()
	return err
}

// WithMaxDepth sets the document nesting and validation depth limit (0 uses default).
func (o Options) WithMaxDepth(value int) Options {
	o.maxDepth = intOption{value: value, set: true}
	return o
}

// WithSchemaMaxNesting sets the schema statement nesting limit (0 uses default).
func (o Options) WithSchemaMaxNesting(value int) Options {
	o.maxNesting = intOption{value: value, set: true}
	return o
}

// WithSchemaMaxNodes sets the limit on compiled schema nodes (0 uses default).
func (o Options) WithSchemaMaxNodes(value int) Options {
	o.maxNodes = intOption{value: value, set: true}
	return o
}

// WithUnknownNodes sets how data nodes without a schema definition are reported.
func (o Options) WithUnknownNodes(value UnknownNodePolicy) Options {
	o.unknownNodes = value
	return o
}

// WithCache enables the process-wide compiled schema cache. The cache is
// only consulted when the built-in schema parser is in use.
func (o Options) WithCache(value bool) Options {
	o.cache = value
	return o
}

// WithLogger sets the logger used for debug output (default is a no-op logger).
func (o Options) WithLogger(value zerolog.Logger) Options {
	o.logger = &value
	return o
}

// WithRecorder sets the observer notified of every validation outcome.
func (o Options) WithRecorder(value Recorder) Options {
	o.recorder = value
	return o
}

// WithSchemaParser replaces the built-in YANG parser.
func (o Options) WithSchemaParser(value SchemaParser) Options {
	o.schemaParser = value
	return o
}

// WithDocumentParser replaces the built-in XML parser.
func (o Options) WithDocumentParser(value DocumentParser) Options {
	o.documentParser = value
	return o
}

func (o Options) withDefaults() (resolvedOptions, error) {
	limits, err := resolveParseLimits(
		o.maxDepth.resolved(),
		o.maxNesting.resolved(),
		o.maxNodes.resolved(),
	)
	if err != nil {
		return resolvedOptions{}, fmt.Errorf("limits: %w", err)
	}
	if _, err := o.unknownNodes.toValidator(); err != nil {
		return resolvedOptions{}, err
	}

	r := resolvedOptions{
		limits:         limits,
		unknownNodes:   o.unknownNodes,
		cache:          o.cache,
		logger:         zerolog.Nop(),
		recorder:       o.recorder,
		schemaParser:   o.schemaParser,
		documentParser: o.documentParser,
	}
	if o.logger != nil {
		r.logger = *o.logger
	}
	if r.recorder == nil {
		r.recorder = nopRecorder{}
	}
	if r.schemaParser == nil {
		r.schemaParser = newYANGParser(limits)
		r.builtinSchema = true
	}
	if r.documentParser == nil {
		r.documentParser = newXMLParser(limits)
	}
	return r, nil
}
