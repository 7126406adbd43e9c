package vecknn

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecknn/blobstore"
	"github.com/hupe1980/vecknn/config"
	"github.com/hupe1980/vecknn/dataset"
	"github.com/hupe1980/vecknn/tuner"
)

var (
	// ErrInvalidConfig is returned for unusable settings, including bad K or D
	// intervals and labels outside the configured classes.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoValidation is returned when a sweep is requested with split=0.
	ErrNoValidation = errors.New("cannot optimize with validation split = 0")

	// ErrNotFound is returned when a data file does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrDimensionMismatch indicates a row with the wrong number of columns.
//
// The underlying error, if any, is available via errors.Unwrap.
type ErrDimensionMismatch struct {
	Row      int
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch at row %d: expected %d columns, got %d", e.Row, e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidLabel indicates a label that is not an integer in [0, classes).
//
// The underlying error, if any, is available via errors.Unwrap.
type ErrInvalidLabel struct {
	Row   int
	Value float64
	cause error
}

func (e *ErrInvalidLabel) Error() string {
	return fmt.Sprintf("invalid label %g at row %d", e.Value, e.Row)
}

func (e *ErrInvalidLabel) Unwrap() error { return e.cause }

// Is reports ErrInvalidConfig so callers can treat label errors as
// configuration errors.
func (e *ErrInvalidLabel) Is(target error) bool { return target == ErrInvalidConfig }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var dm *dataset.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Row: dm.Row, Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var le *dataset.LabelError
	if errors.As(err, &le) {
		return &ErrInvalidLabel{Row: le.Row, Value: le.Value, cause: err}
	}

	if errors.Is(err, tuner.ErrNoValidation) {
		return fmt.Errorf("%w: %w", ErrNoValidation, err)
	}
	if errors.Is(err, tuner.ErrInvalidRange) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, dataset.ErrInvalidSplit) ||
		errors.Is(err, dataset.ErrInvalidInputs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return err
}
