// Package yang validates XML instance documents against YANG schema modules.
//
// A call runs four stages in order: the schema text is compiled into a
// model, the document text is parsed into an element tree, the tree is
// checked against the model, and the findings are reduced to one Result.
// Loading failures stop the pipeline; validation findings never do, so a
// Failure carries every diagnostic the validator could find.
package yang

import (
	"fmt"
	"time"

	"github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/schemacache"
	"github.com/jacoelho/yang/internal/validate"
	"github.com/jacoelho/yang/pkg/schema"
)

// Engine holds a compiled schema and validates many documents against it.
// It is safe for concurrent use by multiple goroutines.
type Engine struct {
	model *schema.Model
	opts  resolvedOptions
}

// Validate compiles schemaText and validates documentText against it using
// default options.
func Validate(schemaText, documentText string) Result {
	return ValidateWithOptions(schemaText, documentText, NewOptions())
}

// ValidateWithOptions compiles schemaText and validates documentText against it.
func ValidateWithOptions(schemaText, documentText string, opts Options) Result {
	start := time.Now()
	e, err := Compile(schemaText, opts)
	if err != nil {
		loadErr, internalErr := classify("schema", err)
		res := report(loadErr, internalErr, nil)
		if resolved, optErr := opts.withDefaults(); optErr == nil {
			observe(resolved, res, time.Since(start))
		}
		return res
	}
	return e.validate(documentText, start)
}

// Compile compiles schema text into an Engine. Schema defects are returned
// as a *LoadError wrapping the error types of package errors; tripped
// resource guards, invalid options and parser panics as an
// *errors.InternalError.
func Compile(schemaText string, opts Options) (engine *Engine, err error) {
	resolved, err := opts.withDefaults()
	if err != nil {
		return nil, &errors.InternalError{Message: "invalid options", Err: err}
	}
	defer func() {
		if r := recover(); r != nil {
			engine, err = nil, errors.NewInternalf("schema parser panic: %v", r)
		}
	}()

	model, err := compileModel(schemaText, resolved)
	if err != nil {
		resolved.logger.Debug().Err(err).Msg("schema compile failed")
		if errors.IsInternal(err) {
			return nil, fmt.Errorf("compile schema: %w", err)
		}
		return nil, &LoadError{Source: "schema", Err: err}
	}
	resolved.logger.Debug().
		Str("module", model.Name).
		Str("namespace", model.Namespace).
		Msg("schema compiled")
	return &Engine{model: model, opts: resolved}, nil
}

func compileModel(text string, opts resolvedOptions) (*schema.Model, error) {
	if !opts.cache || !opts.builtinSchema {
		return opts.schemaParser.ParseSchema(text)
	}
	model, hit, err := schemacache.Default().Get(opts.limits.cacheKey(text), func() (*schema.Model, error) {
		return opts.schemaParser.ParseSchema(text)
	})
	opts.recorder.ObserveSchemaCache(hit)
	return model, err
}

// Model returns the compiled schema model. It must not be modified.
func (e *Engine) Model() *schema.Model {
	if e == nil {
		return nil
	}
	return e.model
}

// Validate validates document text against the compiled schema.
func (e *Engine) Validate(documentText string) Result {
	return e.validate(documentText, time.Now())
}

func (e *Engine) validate(documentText string, start time.Time) (res Result) {
	if e == nil || e.model == nil {
		return report(nil, errors.NewInternalf("schema not loaded"), nil)
	}
	defer func() {
		if r := recover(); r != nil {
			res = report(nil, errors.NewInternalf("validation panic: %v", r), nil)
		}
		observe(e.opts, res, time.Since(start))
	}()

	tree, err := e.opts.documentParser.ParseDocument(documentText)
	if err != nil {
		loadErr, internalErr := classify("document", err)
		return report(loadErr, internalErr, nil)
	}
	policy, err := e.opts.unknownNodes.toValidator()
	if err != nil {
		return report(nil, &errors.InternalError{Message: "invalid options", Err: err}, nil)
	}
	diags, err := validate.Run(e.model, tree, validate.Options{
		MaxDepth:     e.opts.limits.maxDepth,
		UnknownNodes: policy,
	})
	if err != nil {
		return report(nil, err, nil)
	}
	return report(nil, nil, diags)
}

func observe(opts resolvedOptions, res Result, elapsed time.Duration) {
	opts.recorder.ObserveValidation(res.Outcome.String(), elapsed, res.Diagnostics)
	ev := opts.logger.Debug().
		Str("outcome", res.Outcome.String()).
		Int("diagnostics", len(res.Diagnostics)).
		Dur("elapsed", elapsed)
	if res.Err != nil {
		ev = ev.Err(res.Err)
	}
	ev.Msg("validation finished")
}
