package core

import "errors"

// Store errors. Backends wrap these with the table name so callers can use errors.Is.
var (
	ErrTableNotFound    = errors.New("table not found")
	ErrTableExists      = errors.New("table already exists")
	ErrColumnNotFound   = errors.New("column not found")
	ErrEmptyRange       = errors.New("empty range")
	ErrRangeOutOfBounds = errors.New("range out of bounds")
	ErrShapeMismatch    = errors.New("values do not match range shape")
)

// ErrUnknownSheet is returned when an operation names a sheet with no registered layout.
var ErrUnknownSheet = errors.New("unknown sheet")
