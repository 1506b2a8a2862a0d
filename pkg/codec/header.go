package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/provtagio/provtag/pkg/metadata"
)

// HeaderName is the transport header field the compact encoding is
// intended for.
const HeaderName = "X-Content-Provenance"

// Header encodes records as a single ASCII line of semicolon-delimited
// key=value pairs, suitable for one transport header field. Values are
// percent-encoded for embedded ';', '=', '%', and whitespace.
//
// The format is deliberately lossy for custom metadata: the open mapping
// has no bounded size and does not belong in a header value. Decode never
// fabricates the dropped fields. Unknown keys are ignored (lenient), and
// rfc_version is optional in this form.
type Header struct{}

// NewHeader creates the compact header codec.
func NewHeader() *Header {
	return &Header{}
}

// Name implements Codec.
func (h *Header) Name() string { return "header" }

// Encode renders the record as key=value pairs in canonical field order.
func (h *Header) Encode(rec *metadata.Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("cannot encode nil record")
	}

	var sb strings.Builder
	for i, p := range pairs(rec) {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(percentEscape(p.Value))
	}
	return []byte(sb.String()), nil
}

// Decode parses a compact header value. Inputs missing any required field
// are rejected: a header either carries a complete assertion or none.
func (h *Header) Decode(data []byte) (*metadata.Record, error) {
	fields := newFieldSet()

	for _, segment := range strings.Split(string(data), ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		name, rawValue, found := strings.Cut(segment, "=")
		if !found {
			return nil, fmt.Errorf("malformed header segment %q", segment)
		}
		value, err := percentUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("decoding header value for %q: %w", name, err)
		}
		// Unknown keys are ignored so future revisions can add fields.
		fields.set(name, value)
	}

	if verr := fields.requireAll(false); verr != nil {
		return nil, verr
	}
	return fields.build()
}

const upperhex = "0123456789ABCDEF"

func shouldEscape(c byte) bool {
	switch c {
	case ';', '=', '%', ' ', '\t', '\r', '\n':
		return true
	}
	return c < 0x20 || c >= 0x7f
}

// percentEscape escapes the characters reserved by the pair syntax plus
// non-ASCII bytes, keeping the encoded value a single printable ASCII token.
func percentEscape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&0xf])
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func percentUnescape(s string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			sb.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated percent escape in %q", s)
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("invalid percent escape %q", s[i:i+3])
		}
		sb.WriteByte(hi<<4 | lo)
		i += 2
	}
	return sb.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
