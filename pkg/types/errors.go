package types

import "errors"

// Validation errors. Structural violations abort a batch before any write;
// callers wrap these with the offending column/row for reporting.
var (
	ErrMissingColumn        = errors.New("required column missing")
	ErrAllNullColumn        = errors.New("column is wholly null")
	ErrRowCount             = errors.New("unexpected row count")
	ErrConflictingDuplicate = errors.New("duplicate natural key with conflicting payload")
	ErrNoRecords            = errors.New("no records returned")
	ErrCountMismatch        = errors.New("entity count does not match the dashboard")
)

// Configuration and store errors.
var (
	ErrMissingConfig = errors.New("required configuration missing")
	ErrUnknownDriver = errors.New("unknown database driver")
	ErrNotAttached   = errors.New("store is not attached")
)

// Record errors.
var (
	ErrInvalidStatus = errors.New("unknown review status")
	ErrInvalidKind   = errors.New("unknown milestone kind")
)
