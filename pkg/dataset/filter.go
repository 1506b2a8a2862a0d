package dataset

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/provtagio/provtag/pkg/metadata"
)

// Predicate is a caller-supplied filter clause taking the full
// (record, size, name) tuple. It is evaluated last.
type Predicate func(rec *metadata.Record, size int64, name string) bool

// Filter is a composable accept/reject predicate over a content item and
// its provenance record. All active clauses combine with logical AND; any
// clause may reject independently. Rejection reports the clause name for
// diagnostics, but callers only act on accept/reject.
type Filter struct {
	// AllowedOrigins accepts an item only when its record's origin is a
	// member. Empty means every origin is allowed.
	AllowedOrigins []metadata.Origin

	// MaxSize rejects items whose byte size exceeds it. Zero disables the
	// clause. This clause is evaluated before metadata is read, bounding
	// the I/O spent on oversized inputs.
	MaxSize int64

	// Exclude rejects items whose base name matches an entry: a
	// doublestar glob when the entry contains glob metacharacters, a
	// substring match otherwise.
	Exclude []string

	// Custom is an optional caller-supplied clause.
	Custom Predicate
}

// Clause names reported on rejection.
const (
	ClauseMaxSize = "max-size"
	ClauseExclude = "exclude"
	ClauseOrigin  = "origin"
	ClauseCustom  = "custom"
)

// AllowPreRead evaluates the clauses that need no metadata: size threshold
// and name exclusion. The pipeline calls this before any sidecar is parsed.
func (f *Filter) AllowPreRead(size int64, name string) (bool, string) {
	if f.MaxSize > 0 && size > f.MaxSize {
		return false, ClauseMaxSize
	}
	for _, pattern := range f.Exclude {
		if matchExclude(pattern, name) {
			return false, ClauseExclude
		}
	}
	return true, ""
}

// Allow evaluates every clause against the full tuple. The returned string
// names the rejecting clause, or is empty on accept.
func (f *Filter) Allow(rec *metadata.Record, size int64, name string) (bool, string) {
	if ok, clause := f.AllowPreRead(size, name); !ok {
		return false, clause
	}

	if len(f.AllowedOrigins) > 0 {
		allowed := false
		for _, o := range f.AllowedOrigins {
			if rec != nil && rec.Origin == o {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, ClauseOrigin
		}
	}

	if f.Custom != nil && !f.Custom(rec, size, name) {
		return false, ClauseCustom
	}

	return true, ""
}

// Validate reports configuration problems such as a negative size
// threshold or a malformed glob pattern.
func (f *Filter) Validate() error {
	if f.MaxSize < 0 {
		return fmt.Errorf("max size must not be negative, got %d", f.MaxSize)
	}
	for _, o := range f.AllowedOrigins {
		if !o.Valid() {
			return fmt.Errorf("unknown origin %q in allowed set", o)
		}
	}
	for _, pattern := range f.Exclude {
		if isGlob(pattern) {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("invalid exclude pattern %q", pattern)
			}
		}
	}
	return nil
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func matchExclude(pattern, name string) bool {
	if isGlob(pattern) {
		ok, err := doublestar.Match(pattern, name)
		return err == nil && ok
	}
	return strings.Contains(name, pattern)
}
