package metadata

import "fmt"

// Origin classifies the provenance of a content item.
type Origin string

// Origin values.
const (
	OriginHuman  Origin = "human"
	OriginAI     Origin = "ai"
	OriginHybrid Origin = "hybrid"
)

// Origins returns every recognized origin value.
func Origins() []Origin {
	return []Origin{OriginHuman, OriginAI, OriginHybrid}
}

// Valid reports whether o is a recognized origin value.
func (o Origin) Valid() bool {
	switch o {
	case OriginHuman, OriginAI, OriginHybrid:
		return true
	}
	return false
}

// ParseOrigin parses a string into an Origin.
func ParseOrigin(s string) (Origin, error) {
	o := Origin(s)
	if !o.Valid() {
		return "", fmt.Errorf("unknown origin %q", s)
	}
	return o, nil
}

// HashAlgorithm identifies the digest algorithm used for content hashes.
type HashAlgorithm string

// HashSHA256 is currently the only supported hash algorithm.
const HashSHA256 HashAlgorithm = "sha256"

// Valid reports whether h is a recognized hash algorithm.
func (h HashAlgorithm) Valid() bool {
	return h == HashSHA256
}

// DerivationMethod describes how a derived work relates to its parent.
type DerivationMethod string

// DerivationMethod values.
const (
	DerivationTranslation   DerivationMethod = "translation"
	DerivationSummarization DerivationMethod = "summarization"
	DerivationParaphrase    DerivationMethod = "paraphrase"
	DerivationExpansion     DerivationMethod = "expansion"
	DerivationRemix         DerivationMethod = "remix"
	DerivationOther         DerivationMethod = "other"
)

// Valid reports whether d is a recognized derivation method.
func (d DerivationMethod) Valid() bool {
	switch d {
	case DerivationTranslation, DerivationSummarization, DerivationParaphrase,
		DerivationExpansion, DerivationRemix, DerivationOther:
		return true
	}
	return false
}

// ReviewStatus tracks the human-review state of a provenance assertion.
type ReviewStatus string

// ReviewStatus values.
const (
	ReviewUnreviewed ReviewStatus = "unreviewed"
	ReviewReviewed   ReviewStatus = "reviewed"
	ReviewVerified   ReviewStatus = "verified"
	ReviewDisputed   ReviewStatus = "disputed"
)

// Valid reports whether r is a recognized review status.
func (r ReviewStatus) Valid() bool {
	switch r {
	case ReviewUnreviewed, ReviewReviewed, ReviewVerified, ReviewDisputed:
		return true
	}
	return false
}
