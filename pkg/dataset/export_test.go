package dataset_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/metadata"
)

var _ = Describe("ParseExportFormat", func() {
	It("accepts the supported formats", func() {
		for _, name := range []string{"csv", "json", "jsonl"} {
			format, err := dataset.ParseExportFormat(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(format)).To(Equal(name))
		}
	})

	It("rejects anything else", func() {
		_, err := dataset.ParseExportFormat("parquet")
		Expect(err).To(MatchError(ContainSubstring("parquet")))
	})
})

var _ = Describe("Export", func() {
	var (
		root  string
		items []dataset.Item
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		tagItem(root, "first.md", []byte("the first item"), metadata.OriginHuman, "Ada")
		tagItem(root, "second.md", []byte("the, \"second\" item"), metadata.OriginAI, "gpt-4")

		var err error
		items, err = dataset.Collect(root, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(2))
	})

	It("writes CSV with the canonical header and one row per item", func() {
		var buf bytes.Buffer
		count, err := dataset.Export(items, dataset.FormatCSV, &buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(2))

		rows, err := csv.NewReader(&buf).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(3))
		Expect(rows[0]).To(Equal([]string{"path", "content", "origin", "author", "timestamp", "content_hash", "size"}))
		Expect(rows[1]).To(Equal([]string{
			"first.md", "the first item", "human", "Ada",
			"2026-03-14T09:26:53Z", metadata.HashBytes([]byte("the first item")),
			"14",
		}))
		Expect(rows[2][1]).To(Equal("the, \"second\" item"))
	})

	It("writes JSONL with one object per line in snake_case", func() {
		var buf bytes.Buffer
		count, err := dataset.Export(items, dataset.FormatJSONL, &buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(2))

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(2))

		var row map[string]any
		Expect(json.Unmarshal([]byte(lines[0]), &row)).To(Succeed())
		Expect(row).To(HaveKeyWithValue("path", "first.md"))
		Expect(row).To(HaveKeyWithValue("content", "the first item"))
		Expect(row).To(HaveKeyWithValue("origin", "human"))
		Expect(row).To(HaveKeyWithValue("author", "Ada"))
		Expect(row).To(HaveKey("content_hash"))
		Expect(row).To(HaveKey("timestamp"))
		Expect(row).To(HaveKeyWithValue("size", float64(14)))
	})

	It("writes JSON as a single array", func() {
		var buf bytes.Buffer
		count, err := dataset.Export(items, dataset.FormatJSON, &buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(2))

		var rows []map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &rows)).To(Succeed())
		Expect(rows).To(HaveLen(2))
		Expect(rows[1]).To(HaveKeyWithValue("author", "gpt-4"))
	})

	It("exports nothing but the header for an empty item list", func() {
		var buf bytes.Buffer
		count, err := dataset.Export(nil, dataset.FormatCSV, &buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
		Expect(strings.TrimSpace(buf.String())).To(Equal("path,content,origin,author,timestamp,content_hash,size"))
	})
})
