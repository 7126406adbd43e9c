package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLabel is returned when a label is not an integer in [0, classes).
	ErrInvalidLabel = errors.New("invalid class label")

	// ErrInvalidSplit is returned when the validation percentage is outside [0, 100].
	ErrInvalidSplit = errors.New("invalid validation split")

	// ErrInvalidInputs is returned when the feature count is not positive.
	ErrInvalidInputs = errors.New("inputs must be positive")

	// ErrShortData is returned when fewer rows than announced are available.
	ErrShortData = errors.New("not enough rows")
)

// ErrDimensionMismatch indicates a row with the wrong number of columns.
type ErrDimensionMismatch struct {
	Row      int
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("row %d: dimension mismatch: expected %d, got %d", e.Row, e.Expected, e.Actual)
}

// LabelError reports the offending row of an ErrInvalidLabel.
type LabelError struct {
	Row     int
	Value   float64
	Classes int
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("row %d: label %v not in [0, %d)", e.Row, e.Value, e.Classes)
}

func (e *LabelError) Unwrap() error { return ErrInvalidLabel }
