package metadata_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/provtagio/provtag/pkg/metadata"
)

var _ = Describe("HashBytes", func() {
	It("is deterministic over the exact byte sequence", func() {
		content := []byte("the quick brown fox")
		Expect(metadata.HashBytes(content)).To(Equal(metadata.HashBytes(content)))
	})

	It("produces lowercase hex of 64 characters", func() {
		hash := metadata.HashBytes([]byte("x"))
		Expect(hash).To(HaveLen(64))
		Expect(hash).To(Equal(strings.ToLower(hash)))
	})

	It("changes when a single bit flips", func() {
		content := []byte("the quick brown fox")
		flipped := append([]byte(nil), content...)
		flipped[0] ^= 0x01
		Expect(metadata.HashBytes(flipped)).NotTo(Equal(metadata.HashBytes(content)))
	})

	It("applies no normalization", func() {
		Expect(metadata.HashBytes([]byte("line\n"))).NotTo(Equal(metadata.HashBytes([]byte("line\r\n"))))
	})
})

var _ = Describe("HashReader", func() {
	It("matches HashBytes over the same content", func() {
		content := []byte("streamed content")
		fromReader, err := metadata.HashReader(strings.NewReader(string(content)))
		Expect(err).NotTo(HaveOccurred())
		Expect(fromReader).To(Equal(metadata.HashBytes(content)))
	})
})

var _ = Describe("Verify", func() {
	var (
		content []byte
		rec     *metadata.Record
	)

	BeforeEach(func() {
		content = []byte("verified content")
		var err error
		rec, err = metadata.New(metadata.OriginHuman, "Ada", content)
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns valid when the content matches", func() {
		Expect(metadata.Verify(rec, content)).To(Equal(metadata.VerdictValid))
	})

	It("returns tampered when the content changed", func() {
		Expect(metadata.Verify(rec, []byte("edited content"))).To(Equal(metadata.VerdictTampered))
	})

	It("compares hashes case-insensitively", func() {
		rec.ContentHash = strings.ToUpper(rec.ContentHash)
		Expect(metadata.Verify(rec, content)).To(Equal(metadata.VerdictValid))
	})

	It("returns unhashable for a nil record", func() {
		Expect(metadata.Verify(nil, content)).To(Equal(metadata.VerdictUnhashable))
	})

	It("returns unhashable for a malformed recorded hash", func() {
		rec.ContentHash = "zz"
		Expect(metadata.Verify(rec, content)).To(Equal(metadata.VerdictUnhashable))
	})
})

var _ = Describe("VerifyFile", func() {
	var (
		dir     string
		path    string
		content []byte
		rec     *metadata.Record
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "item.txt")
		content = []byte("file content")
		Expect(os.WriteFile(path, content, 0o644)).To(Succeed())

		var err error
		rec, err = metadata.New(metadata.OriginHuman, "Ada", content)
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns valid for an untouched file", func() {
		Expect(metadata.VerifyFile(rec, path)).To(Equal(metadata.VerdictValid))
	})

	It("returns tampered after the file is edited", func() {
		Expect(os.WriteFile(path, []byte("edited"), 0o644)).To(Succeed())
		Expect(metadata.VerifyFile(rec, path)).To(Equal(metadata.VerdictTampered))
	})

	It("returns unhashable for an unreadable file", func() {
		Expect(metadata.VerifyFile(rec, filepath.Join(dir, "missing.txt"))).To(Equal(metadata.VerdictUnhashable))
	})
})
