package models

import "errors"

var (
	// ErrMissingColumn is returned when a required column is not present
	ErrMissingColumn = errors.New("missing column")
	// ErrEmptyTable is returned when an operation needs at least one row
	ErrEmptyTable = errors.New("empty table")
)
