package types

import "errors"

var (
	// ErrNotFound means the assessment (or another referenced entity) does not
	// exist. Aggregation aborts on it; completion degrades to a zero result.
	ErrNotFound = errors.New("not found")

	// ErrInconsistentReference means an answer points at a (control, submeasure)
	// pair with no applicable requirement at the assessment's security level.
	ErrInconsistentReference = errors.New("answer references no applicable requirement")

	// ErrConcurrentModification means another recomputation holds the
	// per-assessment lock. Callers retry with backoff.
	ErrConcurrentModification = errors.New("concurrent recomputation in progress")
)
