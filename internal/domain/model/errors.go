package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every typed error below unwraps to one of these so
// callers can use errors.Is for the kind and errors.As for the details.
var (
	ErrFormat          = errors.New("format error")
	ErrMissingValue    = errors.New("missing value")
	ErrRange           = errors.New("value out of range")
	ErrConvergence     = errors.New("calibration did not converge")
	ErrUnknownCategory = errors.New("unknown category")
)

// FormatError reports a malformed or unreadable source row or file.
type FormatError struct {
	// Row is the 1-based line in the source; 0 when the whole file is affected.
	Row int

	// Column names the offending column, if known.
	Column string

	// Message describes what went wrong.
	Message string

	// Context holds the raw row content.
	Context string

	// Err is the underlying error, if any.
	Err error
}

func (e *FormatError) Error() string {
	loc := "file"
	if e.Row > 0 {
		loc = fmt.Sprintf("row %d", e.Row)
	}
	if e.Column != "" {
		loc += fmt.Sprintf(" column %q", e.Column)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (context: %q)", loc, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// MissingValueError reports a required quantity with no contributor and no fallback.
type MissingValueError struct {
	Category Category
	Quantity Quantity
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("%s: no value for %s and no fallback supplied", e.Category, e.Quantity)
}

func (e *MissingValueError) Unwrap() error { return ErrMissingValue }

// RangeError reports a configuration or parameter value outside its domain.
type RangeError struct {
	Field    string
	Category Category
	Value    float64
	Want     string
}

func (e *RangeError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("%s for %s = %g, want %s", e.Field, e.Category, e.Value, e.Want)
	}
	return fmt.Sprintf("%s = %g, want %s", e.Field, e.Value, e.Want)
}

func (e *RangeError) Unwrap() error { return ErrRange }

// ConvergenceError reports a calibration session that hit its iteration bound
// or stopped improving. Best carries the table with the smallest error seen.
type ConvergenceError struct {
	Iterations   int
	BestErrorPct float64
	Best         *FactorTable
	Reason       string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("calibration did not converge after %d iterations (%s): best error %+.2f%%",
		e.Iterations, e.Reason, e.BestErrorPct)
}

func (e *ConvergenceError) Unwrap() error { return ErrConvergence }
