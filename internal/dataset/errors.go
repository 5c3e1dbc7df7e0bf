package dataset

import "errors"

var (
	// ErrMissingColumn is returned when a required column is absent from a source header.
	ErrMissingColumn = errors.New("required column missing from source header")
	// ErrEmptySource is returned when a source holds no data rows at all.
	ErrEmptySource = errors.New("source contains no data rows")
)
