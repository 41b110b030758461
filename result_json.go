package yang

import (
	json "github.com/goccy/go-json"

	"github.com/jacoelho/yang/errors"
)

type jsonDiagnostic struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Path     string `json:"path"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

type jsonResult struct {
	Valid         bool             `json:"valid"`
	Message       string           `json:"message,omitempty"`
	Diagnostics   []jsonDiagnostic `json:"diagnostics,omitempty"`
	InternalError string           `json:"internal_error,omitempty"`
}

// MarshalJSON encodes the result for transport. Field order and content are
// deterministic for a given Result.
func (r Result) MarshalJSON() ([]byte, error) {
	out := jsonResult{Valid: r.Outcome == Success}
	switch r.Outcome {
	case Success:
		out.Message = SuccessMessage
	case Internal:
		out.InternalError = "internal error"
		if r.Err != nil {
			out.InternalError = r.Err.Error()
		}
		return json.Marshal(out)
	}
	if len(r.Diagnostics) > 0 {
		out.Diagnostics = make([]jsonDiagnostic, len(r.Diagnostics))
		for i, d := range r.Diagnostics {
			out.Diagnostics[i] = toJSONDiagnostic(d)
		}
	}
	return json.Marshal(out)
}

func toJSONDiagnostic(d errors.Diagnostic) jsonDiagnostic {
	return jsonDiagnostic{
		Code:     d.Code,
		Message:  d.Message,
		Path:     d.Path,
		Severity: string(d.Severity),
		Line:     d.Line,
		Column:   d.Column,
	}
}
