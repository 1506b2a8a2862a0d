package dataset_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/metadata"
)

var _ = Describe("DiscoverItems", func() {
	var root string

	BeforeEach(func() {
		root = GinkgoT().TempDir()
	})

	It("returns files depth-first in lexical order", func() {
		writeItem(root, "b.md", []byte("b"))
		writeItem(root, "a/one.txt", []byte("one"))
		writeItem(root, "a/two.txt", []byte("two"))
		writeItem(root, "c/deep/last.md", []byte("last"))

		items, err := dataset.DiscoverItems(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(Equal([]string{
			filepath.Join(root, "a", "one.txt"),
			filepath.Join(root, "a", "two.txt"),
			filepath.Join(root, "b.md"),
			filepath.Join(root, "c", "deep", "last.md"),
		}))
	})

	It("never returns sidecar documents", func() {
		path := writeItem(root, "item.txt", []byte("content"))
		Expect(os.WriteFile(codec.SidecarPath(path), []byte("<content_metadata/>"), 0o644)).To(Succeed())

		items, err := dataset.DiscoverItems(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(Equal([]string{path}))
	})

	It("ignores unrecognized extensions", func() {
		writeItem(root, "image.png", []byte{0x89})
		writeItem(root, "notes.md", []byte("notes"))

		items, err := dataset.DiscoverItems(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(Equal([]string{filepath.Join(root, "notes.md")}))
	})

	It("honors a custom extension set, case-insensitively", func() {
		writeItem(root, "data.CSV", []byte("a,b"))
		writeItem(root, "notes.md", []byte("notes"))

		items, err := dataset.DiscoverItems(root, []string{".csv"})
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(Equal([]string{filepath.Join(root, "data.CSV")}))
	})

	It("fails for a missing root", func() {
		_, err := dataset.DiscoverItems(filepath.Join(root, "absent"), nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Collect", func() {
	var root string

	BeforeEach(func() {
		root = GinkgoT().TempDir()
	})

	It("loads items carrying a valid, integrity-checked record", func() {
		tagItem(root, "article.md", []byte("tagged content"), metadata.OriginHuman, "Ada")

		items, err := dataset.Collect(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(1))
		Expect(items[0].Rel).To(Equal("article.md"))
		Expect(items[0].Record.Author).To(Equal("Ada"))
		Expect(items[0].Size).To(Equal(int64(len("tagged content"))))
	})

	It("takes the item size from the filesystem, not the record", func() {
		content := []byte("actual content")
		path := writeItem(root, "mislabeled.txt", content)

		rec, err := metadata.New(metadata.OriginHuman, "Ada", content,
			metadata.WithTimestamp(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)))
		Expect(err).NotTo(HaveOccurred())
		rec.ContentLength = 9999
		writeSidecar(path, rec)

		items, err := dataset.Collect(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(1))
		Expect(items[0].Size).To(Equal(int64(len(content))))
		Expect(items[0].Record.ContentLength).To(Equal(int64(9999)))
	})

	It("drops untagged items", func() {
		writeItem(root, "untagged.txt", []byte("nothing"))

		items, err := dataset.Collect(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})

	It("drops items whose records fail validation", func() {
		path := writeItem(root, "bad.txt", []byte("content"))
		doc := `<?xml version="1.0"?>
<content_metadata>
  <origin>human</origin>
  <timestamp>2026-03-14T09:26:53Z</timestamp>
  <content_hash>` + metadata.HashBytes([]byte("content")) + `</content_hash>
  <hash_algorithm>sha256</hash_algorithm>
</content_metadata>`
		Expect(os.WriteFile(codec.SidecarPath(path), []byte(doc), 0o644)).To(Succeed())

		items, err := dataset.Collect(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})

	It("drops tampered items", func() {
		path := tagItem(root, "edited.txt", []byte("original"), metadata.OriginHuman, "Ada")
		Expect(os.WriteFile(path, []byte("edited afterwards"), 0o644)).To(Succeed())

		items, err := dataset.Collect(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})
})
