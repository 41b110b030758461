package yang

import (
	stderrors "errors"

	"github.com/jacoelho/yang/errors"
)

// report reduces the outcome of one pipeline run to a Result. At most one
// of loadErr and internalErr is expected to be set.
func report(loadErr, internalErr error, diags []errors.Diagnostic) Result {
	if internalErr != nil {
		return Result{Outcome: Internal, Err: internalErr}
	}
	if loadErr != nil {
		return Result{
			Outcome:     LoadFailure,
			Diagnostics: []errors.Diagnostic{loadDiagnostic(loadErr)},
			Err:         loadErr,
		}
	}
	if errors.DiagnosticList(diags).HasErrors() {
		return Result{Outcome: Failure, Diagnostics: diags}
	}
	return Result{Outcome: Success, Diagnostics: diags}
}

func loadDiagnostic(err error) errors.Diagnostic {
	code := errors.ErrSchemaLoad
	msg := err.Error()
	var le *LoadError
	if stderrors.As(err, &le) {
		if le.Source == "document" {
			code = errors.ErrDocumentLoad
		}
		msg = le.Err.Error()
	}
	d := errors.NewDiagnostic(code, msg, "")
	d.Line, d.Column = errors.Position(err)
	return d
}

// classify splits an error from a loading stage into a load error or an
// internal error.
func classify(source string, err error) (loadErr, internalErr error) {
	if err == nil {
		return nil, nil
	}
	if errors.IsInternal(err) {
		return nil, err
	}
	var le *LoadError
	if stderrors.As(err, &le) {
		return err, nil
	}
	return &LoadError{Source: source, Err: err}, nil
}
