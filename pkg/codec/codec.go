// Package codec maps provenance records to and from their three wire
// forms: the sidecar XML document, the compact single-line header value,
// and HTML meta tag pairs.
//
// All three codecs share one canonical field vocabulary (snake_case
// names). Decoding is case-insensitive for field names and case-preserving
// for values; duplicate declarations of a field keep the last occurrence.
package codec

import (
	"strconv"
	"strings"
	"time"

	"github.com/provtagio/provtag/pkg/metadata"
)

// Codec is one bidirectional mapping between a Record and a serialized
// representation. Decode is structural: it reports malformed input and
// field-level format violations, but leaves required-field enforcement to
// the caller unless the format's contract demands it (the compact header
// rejects inputs missing required fields).
type Codec interface {
	// Name identifies the codec in logs and extraction diagnostics.
	Name() string

	Encode(rec *metadata.Record) ([]byte, error)
	Decode(data []byte) (*metadata.Record, error)
}

// Canonical wire names for every record field.
const (
	FieldVersion          = "version"
	FieldOrigin           = "origin"
	FieldAuthor           = "author"
	FieldTimestamp        = "timestamp"
	FieldContentHash      = "content_hash"
	FieldHashAlgorithm    = "hash_algorithm"
	FieldRFCVersion       = "rfc_version"
	FieldLicense          = "license"
	FieldCreationTool     = "creation_tool"
	FieldDescription      = "description"
	FieldKeywords         = "keywords"
	FieldContentLength    = "content_length"
	FieldContentType      = "content_type"
	FieldLanguage         = "language"
	FieldParentHash       = "parent_hash"
	FieldDerivationMethod = "derivation_method"
	FieldConfidenceScore  = "confidence_score"
	FieldReviewStatus     = "review_status"
)

// fieldOrder is the canonical serialization order: required fields first
// (the order in which presence is checked), then optionals.
var fieldOrder = []string{
	FieldVersion,
	FieldOrigin,
	FieldAuthor,
	FieldTimestamp,
	FieldContentHash,
	FieldHashAlgorithm,
	FieldRFCVersion,
	FieldLicense,
	FieldCreationTool,
	FieldDescription,
	FieldKeywords,
	FieldContentLength,
	FieldContentType,
	FieldLanguage,
	FieldParentHash,
	FieldDerivationMethod,
	FieldConfidenceScore,
	FieldReviewStatus,
}

// requiredOrder is the fixed order in which required-field presence is
// checked; the first missing field determines the reported error.
var requiredOrder = []string{
	FieldOrigin,
	FieldAuthor,
	FieldTimestamp,
	FieldContentHash,
	FieldHashAlgorithm,
}

var knownFields = func() map[string]bool {
	m := make(map[string]bool, len(fieldOrder))
	for _, f := range fieldOrder {
		m[f] = true
	}
	return m
}()

// Pair is one serialized field.
type Pair struct {
	Name  string
	Value string
}

// pairs flattens a record into ordered (name, value) pairs, skipping unset
// fields. Custom metadata is not included; formats that can carry it
// handle it separately.
func pairs(rec *metadata.Record) []Pair {
	value := func(name string) string {
		switch name {
		case FieldVersion:
			return rec.Version
		case FieldOrigin:
			return string(rec.Origin)
		case FieldAuthor:
			return rec.Author
		case FieldTimestamp:
			if rec.Timestamp.IsZero() {
				return ""
			}
			return rec.Timestamp.UTC().Format(time.RFC3339)
		case FieldContentHash:
			return rec.ContentHash
		case FieldHashAlgorithm:
			return string(rec.HashAlgorithm)
		case FieldRFCVersion:
			return rec.RFCVersion
		case FieldLicense:
			return rec.License
		case FieldCreationTool:
			return rec.CreationTool
		case FieldDescription:
			return rec.Description
		case FieldKeywords:
			return rec.Keywords
		case FieldContentLength:
			if rec.ContentLength == 0 {
				return ""
			}
			return strconv.FormatInt(rec.ContentLength, 10)
		case FieldContentType:
			return rec.ContentType
		case FieldLanguage:
			return rec.Language
		case FieldParentHash:
			return rec.ParentHash
		case FieldDerivationMethod:
			return string(rec.DerivationMethod)
		case FieldConfidenceScore:
			if rec.ConfidenceScore == nil {
				return ""
			}
			return strconv.FormatFloat(*rec.ConfidenceScore, 'f', -1, 64)
		case FieldReviewStatus:
			return string(rec.ReviewStatus)
		}
		return ""
	}

	out := make([]Pair, 0, len(fieldOrder))
	for _, name := range fieldOrder {
		if v := value(name); v != "" {
			out = append(out, Pair{Name: name, Value: v})
		}
	}
	return out
}

// Fields flattens a record into its ordered canonical (name, value) pairs,
// skipping unset fields. Custom metadata is not included.
func Fields(rec *metadata.Record) []Pair {
	return pairs(rec)
}

// fieldSet accumulates decoded field pairs before building a Record.
// Names are case-normalized on insert; the last occurrence of a duplicate
// field wins, which enables override patterns in layered documents.
type fieldSet struct {
	values map[string]string
	custom map[string]string
}

func newFieldSet() *fieldSet {
	return &fieldSet{values: make(map[string]string)}
}

// set records a field value. It returns false when the name is not part of
// the canonical vocabulary, leaving the unknown-field policy to the codec.
func (f *fieldSet) set(name, value string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if !knownFields[name] {
		return false
	}
	f.values[name] = value
	return true
}

func (f *fieldSet) setCustom(key, value string) {
	if f.custom == nil {
		f.custom = make(map[string]string)
	}
	f.custom[key] = value
}

func (f *fieldSet) has(name string) bool {
	_, ok := f.values[name]
	return ok
}

// requireAll reports the first required field (in canonical check order)
// that is absent.
func (f *fieldSet) requireAll(alsoRFCVersion bool) *metadata.ValidationError {
	order := requiredOrder
	if alsoRFCVersion {
		order = append(append([]string{}, requiredOrder...), FieldRFCVersion)
	}
	for _, name := range order {
		if !f.has(name) {
			return &metadata.ValidationError{Reason: metadata.ReasonMissingField, Field: name}
		}
	}
	return nil
}

// build converts the accumulated pairs into a Record. Field-level format
// violations (unparseable timestamp, unknown enum value, malformed score)
// surface as *metadata.ValidationError; missing fields do not, so callers
// can apply their own presence policy.
func (f *fieldSet) build() (*metadata.Record, error) {
	rec := &metadata.Record{Custom: f.custom}

	for name, raw := range f.values {
		switch name {
		case FieldVersion:
			rec.Version = raw
		case FieldOrigin:
			origin, err := metadata.ParseOrigin(raw)
			if err != nil {
				return nil, &metadata.ValidationError{Reason: metadata.ReasonInvalidEnum, Field: name, Detail: raw}
			}
			rec.Origin = origin
		case FieldAuthor:
			rec.Author = raw
		case FieldTimestamp:
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, &metadata.ValidationError{Reason: metadata.ReasonInvalidTimestampFormat, Field: name, Detail: raw}
			}
			rec.Timestamp = ts.UTC()
		case FieldContentHash:
			rec.ContentHash = raw
		case FieldHashAlgorithm:
			rec.HashAlgorithm = metadata.HashAlgorithm(strings.ToLower(raw))
		case FieldRFCVersion:
			rec.RFCVersion = raw
		case FieldLicense:
			rec.License = raw
		case FieldCreationTool:
			rec.CreationTool = raw
		case FieldDescription:
			rec.Description = raw
		case FieldKeywords:
			rec.Keywords = raw
		case FieldContentLength:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, &metadata.ValidationError{Reason: metadata.ReasonInvalidFieldFormat, Field: name, Detail: raw}
			}
			rec.ContentLength = n
		case FieldContentType:
			rec.ContentType = raw
		case FieldLanguage:
			rec.Language = raw
		case FieldParentHash:
			rec.ParentHash = raw
		case FieldDerivationMethod:
			rec.DerivationMethod = metadata.DerivationMethod(strings.ToLower(raw))
		case FieldConfidenceScore:
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &metadata.ValidationError{Reason: metadata.ReasonOutOfRangeScore, Field: name, Detail: raw}
			}
			rec.ConfidenceScore = &score
		case FieldReviewStatus:
			rec.ReviewStatus = metadata.ReviewStatus(strings.ToLower(raw))
		}
	}

	return rec, nil
}
