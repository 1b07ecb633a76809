package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data loading errors
	ErrDatasetNotFound = errors.New("dataset file not found")
	ErrMalformedRow    = errors.New("malformed data row")
	ErrMissingColumn   = errors.New("required column missing")
	ErrEmptyDataset    = errors.New("dataset contains no observations")

	// Model fitting errors
	ErrConstantPredictor = errors.New("predictor is constant")
	ErrRankDeficient     = errors.New("design matrix is rank deficient")
	ErrNotConverged      = errors.New("model fit did not converge")
	ErrInsufficientData  = errors.New("insufficient data for analysis")

	// Interaction errors
	ErrTermNotFound = errors.New("model term not found")
)

// Error constructors with context
func NewLoadError(path string, err error) error {
	return fmt.Errorf("loading %s: %w", path, err)
}

func NewRowError(line int, reason string) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedRow, line, reason)
}

func NewColumnError(column string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumn, column)
}

func NewConstantPredictorError(term string) error {
	return fmt.Errorf("%w: %s", ErrConstantPredictor, term)
}

func NewTermError(model, term string) error {
	return fmt.Errorf("%w: %s in model %s", ErrTermNotFound, term, model)
}

// Error checking helpers
func IsLoadError(err error) bool {
	return errors.Is(err, ErrDatasetNotFound) ||
		errors.Is(err, ErrMalformedRow) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrEmptyDataset)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrConstantPredictor) ||
		errors.Is(err, ErrRankDeficient) ||
		errors.Is(err, ErrNotConverged) ||
		errors.Is(err, ErrInsufficientData)
}
