package extract_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/extract"
	"github.com/provtagio/provtag/pkg/metadata"
)

// writeTagged writes content to path and a matching sidecar next to it.
func writeTagged(path string, content []byte) *metadata.Record {
	Expect(os.WriteFile(path, content, 0o644)).To(Succeed())

	rec, err := metadata.New(metadata.OriginHuman, "Ada", content,
		metadata.WithTimestamp(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)),
	)
	Expect(err).NotTo(HaveOccurred())

	encoded, err := codec.NewSidecar().Encode(rec)
	Expect(err).NotTo(HaveOccurred())
	Expect(os.WriteFile(codec.SidecarPath(path), encoded, 0o644)).To(Succeed())

	return rec
}

// htmlDocument builds a page embedding the record's meta tags.
func htmlDocument(rec *metadata.Record, body string) []byte {
	tags, err := codec.NewHTMLMeta().Encode(rec)
	Expect(err).NotTo(HaveOccurred())
	return []byte(fmt.Sprintf("<!DOCTYPE html>\n<html><head>\n%s</head><body>%s</body></html>\n", tags, body))
}

var _ = Describe("Extractor", func() {
	var (
		dir       string
		extractor *extract.Extractor
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		extractor = extract.New(nil)
	})

	It("extracts from a sidecar document", func() {
		path := filepath.Join(dir, "item.txt")
		want := writeTagged(path, []byte("tagged content"))

		rec, err := extractor.Extract(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).NotTo(BeNil())
		Expect(rec.Equal(want)).To(BeTrue())
	})

	It("extracts embedded meta tags from markup items", func() {
		body := "<p>hello</p>"
		want, err := metadata.New(metadata.OriginAI, "gpt-4", []byte("x"),
			metadata.WithTimestamp(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)),
		)
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(dir, "page.html")
		Expect(os.WriteFile(path, htmlDocument(want, body), 0o644)).To(Succeed())

		rec, err := extractor.Extract(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).NotTo(BeNil())
		Expect(rec.Origin).To(Equal(metadata.OriginAI))
		Expect(rec.Author).To(Equal("gpt-4"))
	})

	It("prefers the sidecar over embedded tags", func() {
		embedded, err := metadata.New(metadata.OriginAI, "embedded-author", []byte("x"))
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(dir, "page.html")
		content := htmlDocument(embedded, "<p>body</p>")
		Expect(os.WriteFile(path, content, 0o644)).To(Succeed())

		sidecarRec, err := metadata.New(metadata.OriginHuman, "sidecar-author", content)
		Expect(err).NotTo(HaveOccurred())
		encoded, err := codec.NewSidecar().Encode(sidecarRec)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(codec.SidecarPath(path), encoded, 0o644)).To(Succeed())

		rec, err := extractor.Extract(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Author).To(Equal("sidecar-author"))
	})

	It("returns nil, nil when no source has metadata", func() {
		path := filepath.Join(dir, "bare.txt")
		Expect(os.WriteFile(path, []byte("untagged"), 0o644)).To(Succeed())

		rec, err := extractor.Extract(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).To(BeNil())
	})

	It("treats markup without provenance tags as absent metadata", func() {
		path := filepath.Join(dir, "plain.html")
		Expect(os.WriteFile(path, []byte("<html><head></head><body>hi</body></html>"), 0o644)).To(Succeed())

		rec, err := extractor.Extract(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).To(BeNil())
	})

	It("falls back to the next source when one fails to parse", func() {
		want, err := metadata.New(metadata.OriginHybrid, "both", []byte("x"))
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(dir, "page.html")
		Expect(os.WriteFile(path, htmlDocument(want, ""), 0o644)).To(Succeed())
		Expect(os.WriteFile(codec.SidecarPath(path), []byte("<not-xml"), 0o644)).To(Succeed())

		rec, err := extractor.Extract(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).NotTo(BeNil())
		Expect(rec.Author).To(Equal("both"))
	})

	It("surfaces the first failure when every source fails or is absent", func() {
		path := filepath.Join(dir, "item.txt")
		Expect(os.WriteFile(path, []byte("content"), 0o644)).To(Succeed())
		Expect(os.WriteFile(codec.SidecarPath(path), []byte("<content_metadata><oops></content_metadata>"), 0o644)).To(Succeed())

		rec, err := extractor.Extract(path)
		Expect(rec).To(BeNil())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("sidecar"))
	})

	It("preserves typed validation errors through the chain", func() {
		path := filepath.Join(dir, "item.txt")
		Expect(os.WriteFile(path, []byte("content"), 0o644)).To(Succeed())
		doc := `<?xml version="1.0"?><content_metadata><surprise>x</surprise></content_metadata>`
		Expect(os.WriteFile(codec.SidecarPath(path), []byte(doc), 0o644)).To(Succeed())

		_, err := extractor.Extract(path)
		var verr *metadata.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Reason).To(Equal(metadata.ReasonUnknownField))
	})
})
