package dataset

import "fmt"

// ErrorKind categorizes a per-item or run-level failure.
type ErrorKind string

// Error taxonomy.
const (
	// ErrSchemaViolation: the item's record fails validation.
	ErrSchemaViolation ErrorKind = "schema_violation"

	// ErrIntegrityMismatch: recomputed content hash differs from the record.
	ErrIntegrityMismatch ErrorKind = "integrity_mismatch"

	// ErrExtractionFailure: a metadata source was present but unparseable.
	ErrExtractionFailure ErrorKind = "extraction_failure"

	// ErrIOFailure: the item or root could not be read.
	ErrIOFailure ErrorKind = "io_failure"

	// ErrConfiguration: an option value is invalid.
	ErrConfiguration ErrorKind = "configuration_error"
)

// ItemError is one per-item failure, recorded into statistics and never
// aborting the run.
type ItemError struct {
	Item string
	Kind ErrorKind
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Item, e.Kind, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// FatalError aborts a run before any item is processed. Only root-level
// I/O problems and invalid configuration are fatal.
type FatalError struct {
	Kind ErrorKind
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
