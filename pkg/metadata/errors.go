package metadata

import "fmt"

// Reason is a closed set of validation failure categories.
type Reason string

// Validation failure reasons.
const (
	ReasonMissingField           Reason = "missing_field"
	ReasonInvalidEnum            Reason = "invalid_enum"
	ReasonInvalidHashFormat      Reason = "invalid_hash_format"
	ReasonInvalidTimestampFormat Reason = "invalid_timestamp_format"
	ReasonOutOfRangeScore        Reason = "out_of_range_score"
	ReasonUnknownField           Reason = "unknown_field"
	ReasonInvalidFieldFormat     Reason = "invalid_field_format"
)

// ValidationError describes the first invariant a record violates.
// Field names the offending field in its canonical wire form
// (e.g. "content_hash").
type ValidationError struct {
	Reason Reason
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("validation failed: %s (%s): %s", e.Field, e.Reason, e.Detail)
	}
	return fmt.Sprintf("validation failed: %s (%s)", e.Field, e.Reason)
}

func missing(field string) *ValidationError {
	return &ValidationError{Reason: ReasonMissingField, Field: field}
}

func invalid(reason Reason, field, detail string) *ValidationError {
	return &ValidationError{Reason: reason, Field: field, Detail: detail}
}
