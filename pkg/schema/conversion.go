package schema

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// ConversionResult is the envelope every adapter operation returns. Data is
// only meaningful when Success is true; a non-empty Errors always means
// Success is false.
type ConversionResult[T any] struct {
	Success  bool
	Data     T
	Warnings []string
	Errors   []string
}

// Report accumulates fidelity notes and blocking problems while a single
// conversion runs. It is not safe for concurrent use and is meant to live
// only for the duration of one call.
type Report struct {
	warnings []string
	errors   []string
}

// Warn records a non-fatal fidelity note
func (r *Report) Warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Drop records that a feature could not be carried over. The note starts
// with the feature name so callers can tell which feature was lost.
func (r *Report) Drop(f Feature, format string, args ...any) {
	r.warnings = append(r.warnings, string(f)+": "+fmt.Sprintf(format, args...))
}

// Fail records a blocking problem
func (r *Report) Fail(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

// FailErr records err as a blocking problem. Validation errors are split
// into one entry per violation.
func (r *Report) FailErr(err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		for _, v := range ve.Violations {
			r.errors = append(r.errors, v.String())
		}
		return
	}
	r.errors = append(r.errors, err.Error())
}

// Failed reports whether any blocking problem has been recorded
func (r *Report) Failed() bool {
	return len(r.errors) > 0
}

// Warnings returns a copy of the recorded warnings
func (r *Report) Warnings() []string {
	return slices.Clone(r.warnings)
}

// Result freezes the report into a result envelope. If any error was
// recorded, data is discarded.
func Result[T any](r *Report, data T) ConversionResult[T] {
	res := ConversionResult[T]{
		Warnings: slices.Clone(r.warnings),
		Errors:   slices.Clone(r.errors),
	}
	if len(res.Errors) == 0 {
		res.Success = true
		res.Data = data
	}
	return res
}

// Failure freezes the report into a failed envelope
func Failure[T any](r *Report) ConversionResult[T] {
	var zero T
	if !r.Failed() {
		r.Fail("conversion failed")
	}
	return Result(r, zero)
}
