package yang

import (
	"time"

	"github.com/jacoelho/yang/errors"
)

// Recorder observes validation calls, typically to export metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveValidation(outcome string, elapsed time.Duration, diags []errors.Diagnostic)
	ObserveSchemaCache(hit bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveValidation(string, time.Duration, []errors.Diagnostic) {}

func (nopRecorder) ObserveSchemaCache(bool) {}
