package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/provtagio/provtag/pkg/metadata"
)

const (
	// SidecarSuffix is the reserved filename suffix for sidecar metadata
	// documents stored next to the content item they describe.
	SidecarSuffix = ".meta.xml"

	// sidecarNamespace is the XML namespace of the metadata document.
	sidecarNamespace = "urn:ietf:params:xml:ns:ai-content"

	rootElement   = "content_metadata"
	customElement = "custom_metadata"
	entryElement  = "entry"
)

// SidecarPath returns the sidecar document path for a content item.
func SidecarPath(itemPath string) string {
	return itemPath + SidecarSuffix
}

// IsSidecar reports whether a filename carries the reserved sidecar suffix.
func IsSidecar(name string) bool {
	return strings.HasSuffix(name, SidecarSuffix)
}

// Sidecar encodes records as standalone XML documents, one element per
// field, under the ai-content namespace. Decoding is strict: elements
// outside the canonical vocabulary are rejected.
type Sidecar struct{}

// NewSidecar creates the sidecar document codec.
func NewSidecar() *Sidecar {
	return &Sidecar{}
}

// Name implements Codec.
func (s *Sidecar) Name() string { return "sidecar" }

// Encode renders the record as an XML document. Unset optional fields are
// omitted; custom metadata entries are written in sorted key order so
// output is deterministic.
func (s *Sidecar) Encode(rec *metadata.Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("cannot encode nil record")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, "<%s xmlns=%q>\n", rootElement, sidecarNamespace)

	for _, p := range pairs(rec) {
		buf.WriteString("  <" + p.Name + ">")
		if err := xml.EscapeText(&buf, []byte(p.Value)); err != nil {
			return nil, fmt.Errorf("escaping %s: %w", p.Name, err)
		}
		buf.WriteString("</" + p.Name + ">\n")
	}

	if len(rec.Custom) > 0 {
		keys := make([]string, 0, len(rec.Custom))
		for k := range rec.Custom {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteString("  <" + customElement + ">\n")
		for _, k := range keys {
			var name bytes.Buffer
			if err := xml.EscapeText(&name, []byte(k)); err != nil {
				return nil, fmt.Errorf("escaping custom key: %w", err)
			}
			buf.WriteString("    <" + entryElement + " name=\"" + name.String() + "\">")
			if err := xml.EscapeText(&buf, []byte(rec.Custom[k])); err != nil {
				return nil, fmt.Errorf("escaping custom value: %w", err)
			}
			buf.WriteString("</" + entryElement + ">\n")
		}
		buf.WriteString("  </" + customElement + ">\n")
	}

	buf.WriteString("</" + rootElement + ">\n")
	return buf.Bytes(), nil
}

// Decode parses a sidecar document. Malformed XML and out-of-vocabulary
// elements are errors; missing required fields are not (the caller's
// validation pass owns presence policy, so absent-vs-malformed stays
// distinguishable downstream).
func (s *Sidecar) Decode(data []byte) (*metadata.Record, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	root, err := nextStartElement(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing sidecar document: %w", err)
	}
	if root.Name.Local != rootElement {
		return nil, fmt.Errorf("unexpected root element %q", root.Name.Local)
	}

	fields := newFieldSet()
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing sidecar document: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if strings.EqualFold(se.Name.Local, customElement) {
			if err := decodeCustomEntries(dec, &se, fields); err != nil {
				return nil, err
			}
			continue
		}

		var value string
		if err := dec.DecodeElement(&value, &se); err != nil {
			return nil, fmt.Errorf("parsing element %q: %w", se.Name.Local, err)
		}
		if !fields.set(se.Name.Local, strings.TrimSpace(value)) {
			return nil, &metadata.ValidationError{
				Reason: metadata.ReasonUnknownField,
				Field:  strings.ToLower(se.Name.Local),
			}
		}
	}

	return fields.build()
}

func decodeCustomEntries(dec *xml.Decoder, start *xml.StartElement, fields *fieldSet) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("parsing %s: %w", customElement, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !strings.EqualFold(t.Name.Local, entryElement) {
				return &metadata.ValidationError{
					Reason: metadata.ReasonUnknownField,
					Field:  customElement + "." + strings.ToLower(t.Name.Local),
				}
			}
			var key string
			for _, attr := range t.Attr {
				if strings.EqualFold(attr.Name.Local, "name") {
					key = attr.Value
				}
			}
			var value string
			if err := dec.DecodeElement(&value, &t); err != nil {
				return fmt.Errorf("parsing custom entry: %w", err)
			}
			if key != "" {
				fields.setCustom(key, value)
			}
		case xml.EndElement:
			if strings.EqualFold(t.Name.Local, customElement) {
				return nil
			}
		}
	}
}

func nextStartElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}
