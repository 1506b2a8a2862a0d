package codec

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/provtagio/provtag/pkg/metadata"
)

// MetaNamePrefix prefixes every provenance meta tag name in a markup
// document, e.g. <meta name="ai-content.origin" content="human">.
const MetaNamePrefix = "ai-content."

// customMetaPrefix namespaces custom metadata entries below the field
// vocabulary, e.g. ai-content.custom.reviewer.
const customMetaPrefix = MetaNamePrefix + "custom."

// HTMLMeta encodes records as meta tag pairs for a markup document's head
// and decodes them by scanning the whole document. Decoding is lenient:
// meta tags outside the ai-content vocabulary are ignored, and later
// declarations of the same field override earlier ones.
type HTMLMeta struct{}

// NewHTMLMeta creates the embedded meta tag codec.
func NewHTMLMeta() *HTMLMeta {
	return &HTMLMeta{}
}

// Name implements Codec.
func (m *HTMLMeta) Name() string { return "html-meta" }

// Encode renders one meta tag per set field, in canonical order, followed
// by custom entries in sorted key order. The output is a fragment meant
// for a document head, not a complete document.
func (m *HTMLMeta) Encode(rec *metadata.Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("cannot encode nil record")
	}

	var buf bytes.Buffer
	for _, p := range pairs(rec) {
		writeMetaTag(&buf, MetaNamePrefix+p.Name, p.Value)
	}

	if len(rec.Custom) > 0 {
		keys := make([]string, 0, len(rec.Custom))
		for k := range rec.Custom {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeMetaTag(&buf, customMetaPrefix+k, rec.Custom[k])
		}
	}

	return buf.Bytes(), nil
}

func writeMetaTag(buf *bytes.Buffer, name, content string) {
	fmt.Fprintf(buf, "<meta name=\"%s\" content=\"%s\">\n",
		html.EscapeString(name), html.EscapeString(content))
}

// Decode tokenizes the document and collects every ai-content meta tag.
// It returns nil, nil when the document carries no provenance tags at all,
// so callers can tell "no embedded metadata" apart from a malformed record.
func (m *HTMLMeta) Decode(data []byte) (*metadata.Record, error) {
	fields := newFieldSet()
	found := false

	tz := xhtml.NewTokenizer(bytes.NewReader(data))
	for {
		tt := tz.Next()
		if tt == xhtml.ErrorToken {
			// Tokenization never fails on malformed markup, only on EOF.
			break
		}
		if tt != xhtml.StartTagToken && tt != xhtml.SelfClosingTagToken {
			continue
		}

		tok := tz.Token()
		if tok.Data != "meta" {
			continue
		}

		var name, content string
		for _, attr := range tok.Attr {
			switch strings.ToLower(attr.Key) {
			case "name":
				name = attr.Val
			case "content":
				content = attr.Val
			}
		}

		lower := strings.ToLower(name)
		switch {
		case strings.HasPrefix(lower, customMetaPrefix):
			key := name[len(customMetaPrefix):]
			if key != "" {
				fields.setCustom(key, content)
				found = true
			}
		case strings.HasPrefix(lower, MetaNamePrefix):
			if fields.set(lower[len(MetaNamePrefix):], content) {
				found = true
			}
			// Unrecognized field names under the prefix are ignored.
		}
	}

	if !found {
		return nil, nil
	}
	return fields.build()
}
