package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Verdict is the outcome of an integrity check.
type Verdict int

// Integrity verdicts.
const (
	// VerdictValid means the recomputed hash matches the record.
	VerdictValid Verdict = iota

	// VerdictTampered means the content bytes no longer match the
	// recorded hash.
	VerdictTampered

	// VerdictUnhashable means the content could not be read or the
	// record carries no usable hash.
	VerdictUnhashable
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictTampered:
		return "tampered"
	case VerdictUnhashable:
		return "unhashable"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// HashBytes computes the lowercase hex SHA-256 digest of the exact byte
// sequence. No normalization is applied.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashReader computes the lowercase hex SHA-256 digest of everything
// readable from r.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile computes the content hash of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return HashReader(f)
}

// VerifyIntegrity recomputes the content hash and compares it against the
// record. Hash comparison is case-insensitive since hex digests may be
// recorded in either case.
func (r *Record) VerifyIntegrity(content []byte) bool {
	return strings.EqualFold(HashBytes(content), r.ContentHash)
}

// Verify checks content bytes against a record and returns a Verdict.
// A nil record or a record without a well-formed hash is Unhashable.
func Verify(rec *Record, content []byte) Verdict {
	if rec == nil || !hashPattern.MatchString(rec.ContentHash) {
		return VerdictUnhashable
	}
	if rec.VerifyIntegrity(content) {
		return VerdictValid
	}
	return VerdictTampered
}

// VerifyFile checks the file at path against a record. Unreadable content
// yields Unhashable rather than an error: integrity checking distinguishes
// "cannot know" from "known mismatch".
func VerifyFile(rec *Record, path string) Verdict {
	if rec == nil || !hashPattern.MatchString(rec.ContentHash) {
		return VerdictUnhashable
	}
	actual, err := HashFile(path)
	if err != nil {
		return VerdictUnhashable
	}
	if strings.EqualFold(actual, rec.ContentHash) {
		return VerdictValid
	}
	return VerdictTampered
}
