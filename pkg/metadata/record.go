// Package metadata defines the provenance record attached to a content
// item: who or what produced it, when, and a digest of the exact bytes so
// downstream tooling can detect tampering.
package metadata

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	// CurrentVersion is the metadata schema version emitted by this tool.
	CurrentVersion = "1.0"

	// CurrentRFCVersion is the draft revision this implementation tracks.
	CurrentRFCVersion = "draft-williams-ai-content-tagging-00"
)

var (
	hashPattern       = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)
	rfcVersionPattern = regexp.MustCompile(`^draft-[a-z0-9]+(-[a-z0-9]+)*-[0-9]{2}$`)
	languagePattern   = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
	mimePattern       = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*/[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*$`)
)

// Record is one provenance assertion for one content item.
//
// A Record is immutable once validated: any change to the content it
// describes produces a new Record with a new ContentHash. Optional string
// fields use the empty string as "unset"; ContentLength uses zero.
// Timestamp is held at whole-second UTC precision, matching the RFC 3339
// granularity every serialized form carries, so records survive an
// encode/decode cycle unchanged.
type Record struct {
	Version       string
	Origin        Origin
	Author        string
	Timestamp     time.Time
	ContentHash   string
	HashAlgorithm HashAlgorithm
	RFCVersion    string

	License          string
	CreationTool     string
	Description      string
	Keywords         string
	ContentLength    int64
	ContentType      string
	Language         string
	ParentHash       string
	DerivationMethod DerivationMethod
	ConfidenceScore  *float64
	ReviewStatus     ReviewStatus
	Custom           map[string]string
}

// Option configures optional fields on a Record built with New.
type Option func(*Record)

// WithLicense sets the license field.
func WithLicense(license string) Option {
	return func(r *Record) { r.License = license }
}

// WithCreationTool sets the tool that produced the content.
func WithCreationTool(tool string) Option {
	return func(r *Record) { r.CreationTool = tool }
}

// WithDescription sets the free-text description.
func WithDescription(desc string) Option {
	return func(r *Record) { r.Description = desc }
}

// WithKeywords sets the comma-delimited keyword list.
func WithKeywords(keywords string) Option {
	return func(r *Record) { r.Keywords = keywords }
}

// WithContentType sets the MIME type of the content.
func WithContentType(ct string) Option {
	return func(r *Record) { r.ContentType = ct }
}

// WithLanguage sets the 2-letter (optionally region-qualified) language code.
func WithLanguage(lang string) Option {
	return func(r *Record) { r.Language = lang }
}

// WithParent marks the record as a derived work of the content with the
// given hash, produced by the given method.
func WithParent(parentHash string, method DerivationMethod) Option {
	return func(r *Record) {
		r.ParentHash = parentHash
		r.DerivationMethod = method
	}
}

// WithConfidence sets the origin-assertion confidence score.
func WithConfidence(score float64) Option {
	return func(r *Record) { r.ConfidenceScore = &score }
}

// WithReviewStatus sets the review status.
func WithReviewStatus(status ReviewStatus) Option {
	return func(r *Record) { r.ReviewStatus = status }
}

// WithCustom adds one custom metadata entry.
func WithCustom(key, value string) Option {
	return func(r *Record) {
		if r.Custom == nil {
			r.Custom = make(map[string]string)
		}
		r.Custom[key] = value
	}
}

// WithTimestamp overrides the assertion timestamp (defaults to now).
// The value is normalized to canonical precision.
func WithTimestamp(ts time.Time) Option {
	return func(r *Record) { r.Timestamp = ts.UTC().Truncate(time.Second) }
}

// New builds a fully validated Record for the given content bytes. The
// content hash, timestamp, schema version, and RFC version are filled in;
// options set the optional fields. The returned record always passes
// ValidateStrict.
func New(origin Origin, author string, content []byte, opts ...Option) (*Record, error) {
	rec := &Record{
		Version:       CurrentVersion,
		Origin:        origin,
		Author:        author,
		Timestamp:     time.Now().UTC().Truncate(time.Second),
		ContentHash:   HashBytes(content),
		HashAlgorithm: HashSHA256,
		RFCVersion:    CurrentRFCVersion,
		ContentLength: int64(len(content)),
	}
	for _, opt := range opts {
		opt(rec)
	}
	if verr := rec.ValidateStrict(); verr != nil {
		return nil, verr
	}
	return rec, nil
}

// Validate checks every record invariant except the strict-schema
// requirement that rfc_version be present. It returns the first violation
// found, or nil. Field presence is checked in the fixed order origin,
// author, timestamp, content_hash, hash_algorithm, rfc_version, then the
// optional fields.
func (r *Record) Validate() *ValidationError {
	return r.validate(false)
}

// ValidateStrict additionally requires rfc_version, matching the full
// sidecar schema.
func (r *Record) ValidateStrict() *ValidationError {
	return r.validate(true)
}

func (r *Record) validate(strict bool) *ValidationError {
	if r.Origin == "" {
		return missing("origin")
	}
	if !r.Origin.Valid() {
		return invalid(ReasonInvalidEnum, "origin", string(r.Origin))
	}

	if r.Author == "" {
		return missing("author")
	}
	if len(r.Author) > 255 {
		return invalid(ReasonInvalidFieldFormat, "author", fmt.Sprintf("%d chars exceeds 255", len(r.Author)))
	}
	if strings.ContainsAny(r.Author, "\n\t\r") {
		return invalid(ReasonInvalidFieldFormat, "author", "contains control characters")
	}

	if r.Timestamp.IsZero() {
		return missing("timestamp")
	}

	if r.ContentHash == "" {
		return missing("content_hash")
	}
	if !hashPattern.MatchString(r.ContentHash) {
		return invalid(ReasonInvalidHashFormat, "content_hash", r.ContentHash)
	}

	if r.HashAlgorithm == "" {
		return missing("hash_algorithm")
	}
	if !r.HashAlgorithm.Valid() {
		return invalid(ReasonInvalidEnum, "hash_algorithm", string(r.HashAlgorithm))
	}

	if strict && r.RFCVersion == "" {
		return missing("rfc_version")
	}
	if r.RFCVersion != "" && !rfcVersionPattern.MatchString(r.RFCVersion) {
		return invalid(ReasonInvalidFieldFormat, "rfc_version", r.RFCVersion)
	}

	if r.Keywords != "" {
		for _, kw := range strings.Split(r.Keywords, ",") {
			if strings.TrimSpace(kw) == "" {
				return invalid(ReasonInvalidFieldFormat, "keywords", "empty keyword segment")
			}
		}
	}
	if r.ContentLength < 0 {
		return invalid(ReasonInvalidFieldFormat, "content_length", "negative")
	}
	if r.ContentType != "" && !mimePattern.MatchString(r.ContentType) {
		return invalid(ReasonInvalidFieldFormat, "content_type", r.ContentType)
	}
	if r.Language != "" && !languagePattern.MatchString(r.Language) {
		return invalid(ReasonInvalidFieldFormat, "language", r.Language)
	}
	if r.ParentHash != "" && !hashPattern.MatchString(r.ParentHash) {
		return invalid(ReasonInvalidHashFormat, "parent_hash", r.ParentHash)
	}
	if r.DerivationMethod != "" && !r.DerivationMethod.Valid() {
		return invalid(ReasonInvalidEnum, "derivation_method", string(r.DerivationMethod))
	}
	if r.ConfidenceScore != nil {
		score := *r.ConfidenceScore
		if score < 0 || score > 1 || math.IsNaN(score) {
			return invalid(ReasonOutOfRangeScore, "confidence_score", fmt.Sprintf("%v", score))
		}
		if math.Round(score*1000) != score*1000 {
			return invalid(ReasonOutOfRangeScore, "confidence_score", "more than 3 fraction digits")
		}
	}
	if r.ReviewStatus != "" && !r.ReviewStatus.Valid() {
		return invalid(ReasonInvalidEnum, "review_status", string(r.ReviewStatus))
	}

	return nil
}

// Equal reports whether two records carry the same provenance assertion.
// Timestamps compare by instant, custom metadata by key/value equality.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Origin != other.Origin ||
		r.Author != other.Author ||
		!r.Timestamp.Equal(other.Timestamp) ||
		!strings.EqualFold(r.ContentHash, other.ContentHash) ||
		r.HashAlgorithm != other.HashAlgorithm ||
		r.RFCVersion != other.RFCVersion ||
		r.License != other.License ||
		r.CreationTool != other.CreationTool ||
		r.Description != other.Description ||
		r.Keywords != other.Keywords ||
		r.ContentLength != other.ContentLength ||
		r.ContentType != other.ContentType ||
		r.Language != other.Language ||
		r.ParentHash != other.ParentHash ||
		r.DerivationMethod != other.DerivationMethod ||
		r.ReviewStatus != other.ReviewStatus {
		return false
	}
	if (r.ConfidenceScore == nil) != (other.ConfidenceScore == nil) {
		return false
	}
	if r.ConfidenceScore != nil && *r.ConfidenceScore != *other.ConfidenceScore {
		return false
	}
	if len(r.Custom) != len(other.Custom) {
		return false
	}
	for k, v := range r.Custom {
		if other.Custom[k] != v {
			return false
		}
	}
	return true
}
