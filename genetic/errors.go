package genetic

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ConfigurationError reports an invalid option value discovered at Fit time
// (spec.md §7): out-of-range probabilities, malformed depth/const ranges,
// unknown metric or init method, hall_of_fame/n_components misconfiguration.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return "genetic: configuration error: " + e.msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// ShapeError reports that Predict/Transform received X with a column count
// different from the one observed at Fit.
type ShapeError struct {
	Got, Want int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("genetic: shape error: X has %d columns, fit used %d", e.Got, e.Want)
}

// NumericWarning is logged, not raised, when protected operators trigger for
// a fraction of evaluated rows exceeding a threshold. Its Message is logged
// via zap; the warning is not stored on History.
type NumericWarning struct {
	Generation int
	Fraction   float64
	Message    string
}

func (w *NumericWarning) Error() string { return w.Message }

// matrixHasNaN reports whether any row of X contains a NaN value.
func matrixHasNaN(X [][]float64) bool {
	for _, row := range X {
		for _, v := range row {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

// vectorHasNaN reports whether v contains a NaN value.
func vectorHasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// wrapf attaches additional context to an underlying error using pkg/errors,
// preserving the original error in the chain for %+v stack traces.
func wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
