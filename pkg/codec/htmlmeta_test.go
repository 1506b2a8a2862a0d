package codec_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/metadata"
)

var _ = Describe("HTMLMeta codec", func() {
	var meta *codec.HTMLMeta

	BeforeEach(func() {
		meta = codec.NewHTMLMeta()
	})

	It("emits one prefixed meta tag per set field", func() {
		rec := minimalRecord()

		encoded, err := meta.Encode(rec)
		Expect(err).NotTo(HaveOccurred())

		fragment := string(encoded)
		Expect(fragment).To(ContainSubstring(`<meta name="ai-content.origin" content="human">`))
		Expect(fragment).To(ContainSubstring(`<meta name="ai-content.author" content="Ada">`))
		Expect(fragment).NotTo(ContainSubstring(`ai-content.license`))
	})

	It("round-trips a fully populated record", func() {
		rec := fullRecord()

		encoded, err := meta.Encode(rec)
		Expect(err).NotTo(HaveOccurred())

		decoded, err := meta.Decode(encoded)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.Equal(rec)).To(BeTrue())
	})

	It("round-trips a freshly built record unchanged", func() {
		rec, err := metadata.New(metadata.OriginHybrid, "Ada", []byte("edited draft"))
		Expect(err).NotTo(HaveOccurred())

		encoded, err := meta.Encode(rec)
		Expect(err).NotTo(HaveOccurred())

		decoded, err := meta.Decode(encoded)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.Equal(rec)).To(BeTrue())
	})

	It("carries custom metadata under the custom namespace", func() {
		rec := fullRecord()

		encoded, err := meta.Encode(rec)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(encoded)).To(ContainSubstring(`<meta name="ai-content.custom.project" content="corpus-v2">`))
	})

	It("escapes markup in tag content", func() {
		rec := minimalRecord()
		rec.Description = `"quoted" <desc>`

		encoded, err := meta.Encode(rec)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(encoded)).NotTo(ContainSubstring("<desc>"))

		decoded, err := meta.Decode(encoded)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.Description).To(Equal(rec.Description))
	})

	Context("decoding full documents", func() {
		document := func(head string) []byte {
			return []byte(fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<title>Page</title>
%s
<meta name="viewport" content="width=device-width">
</head>
<body><p>Content body.</p></body>
</html>`, head))
		}

		provenanceHead := func() string {
			rec := minimalRecord()
			encoded, err := codec.NewHTMLMeta().Encode(rec)
			Expect(err).NotTo(HaveOccurred())
			return string(encoded)
		}

		It("finds provenance tags among unrelated ones", func() {
			decoded, err := meta.Decode(document(provenanceHead()))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).NotTo(BeNil())
			Expect(decoded.Author).To(Equal("Ada"))
		})

		It("returns nil for a document without provenance tags", func() {
			decoded, err := meta.Decode(document(""))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(BeNil())
		})

		It("returns nil for plain text", func() {
			decoded, err := meta.Decode([]byte("just some text, no markup"))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(BeNil())
		})

		It("keeps the last declaration of a duplicated field", func() {
			head := provenanceHead() + `<meta name="ai-content.author" content="Grace">`
			decoded, err := meta.Decode(document(head))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.Author).To(Equal("Grace"))
		})

		It("matches tag names case-insensitively", func() {
			head := `<meta name="AI-Content.Origin" content="human">`
			decoded, err := meta.Decode(document(head))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).NotTo(BeNil())
			Expect(decoded.Origin).To(Equal(metadata.OriginHuman))
		})

		It("ignores unrecognized names under the prefix", func() {
			head := provenanceHead() + `<meta name="ai-content.surprise" content="x">`
			decoded, err := meta.Decode(document(head))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.Author).To(Equal("Ada"))
		})

		It("handles self-closing meta tags", func() {
			head := `<meta name="ai-content.origin" content="ai" />`
			decoded, err := meta.Decode(document(head))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).NotTo(BeNil())
			Expect(decoded.Origin).To(Equal(metadata.OriginAI))
		})
	})
})
