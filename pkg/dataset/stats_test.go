package dataset_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/metadata"
)

var _ = Describe("Statistics", func() {
	var stats *dataset.Statistics

	record := func(origin metadata.Origin, author, license, tool string) *metadata.Record {
		rec, err := metadata.New(origin, author, []byte("content"))
		Expect(err).NotTo(HaveOccurred())
		rec.License = license
		rec.CreationTool = tool
		return rec
	}

	BeforeEach(func() {
		stats = dataset.NewStatistics()
	})

	It("starts empty", func() {
		report := stats.Report()
		Expect(report.Summary.TotalFiles).To(BeZero())
		Expect(report.Summary.SuccessRate).To(BeZero())
		Expect(report.Errors).To(BeEmpty())
	})

	It("tallies outcomes into the summary", func() {
		for i := 0; i < 4; i++ {
			stats.Discovered()
		}
		stats.Accepted(record(metadata.OriginHuman, "Ada", "", ""), 100)
		stats.Accepted(record(metadata.OriginAI, "gpt-4", "", ""), 300)
		stats.Skipped()
		stats.Errored("bad.txt", dataset.ErrSchemaViolation, errors.New("missing author"))

		report := stats.Report()
		Expect(report.Summary.TotalFiles).To(Equal(4))
		Expect(report.Summary.ProcessedFiles).To(Equal(2))
		Expect(report.Summary.SkippedFiles).To(Equal(1))
		Expect(report.Summary.ErrorFiles).To(Equal(1))
		Expect(report.Summary.SuccessRate).To(Equal(50.0))
	})

	It("counts per-origin and reports zeroes for unseen origins", func() {
		stats.Discovered()
		stats.Accepted(record(metadata.OriginHuman, "Ada", "", ""), 1)

		report := stats.Report()
		Expect(report.Origins).To(HaveKeyWithValue("human", 1))
		Expect(report.Origins).To(HaveKeyWithValue("ai", 0))
		Expect(report.Origins).To(HaveKeyWithValue("hybrid", 0))
	})

	It("counts distinct authors, licenses, and toolchains", func() {
		stats.Accepted(record(metadata.OriginHuman, "Ada", "MIT", "pen/1"), 1)
		stats.Accepted(record(metadata.OriginHuman, "Ada", "MIT", "pen/2"), 1)
		stats.Accepted(record(metadata.OriginHuman, "Grace", "", "pen/1"), 1)

		report := stats.Report()
		Expect(report.Authors).To(Equal(2))
		Expect(report.Licenses).To(Equal(1))
		Expect(report.Toolchains).To(Equal(2))
	})

	It("tracks min, max, average, and total sizes of accepted items", func() {
		stats.Accepted(record(metadata.OriginHuman, "Ada", "", ""), 100)
		stats.Accepted(record(metadata.OriginHuman, "Ada", "", ""), 300)
		stats.Accepted(record(metadata.OriginHuman, "Ada", "", ""), 200)

		report := stats.Report()
		Expect(report.FileSize.Min).To(Equal(int64(100)))
		Expect(report.FileSize.Max).To(Equal(int64(300)))
		Expect(report.FileSize.Average).To(Equal(200.0))
		Expect(report.FileSize.Median).To(Equal(200.0))
		Expect(report.FileSize.Total).To(Equal(int64(600)))
	})

	It("preserves error order in the report", func() {
		stats.Errored("a.txt", dataset.ErrSchemaViolation, errors.New("first"))
		stats.Errored("b.txt", dataset.ErrIOFailure, errors.New("second"))

		report := stats.Report()
		Expect(report.Errors).To(HaveLen(2))
		Expect(report.Errors[0].Item).To(Equal("a.txt"))
		Expect(report.Errors[1].Item).To(Equal("b.txt"))
	})

	It("produces the same report when read twice", func() {
		stats.Discovered()
		stats.Accepted(record(metadata.OriginHuman, "Ada", "", ""), 10)

		Expect(stats.Report()).To(Equal(stats.Report()))
	})

	It("returns to its start state on reset", func() {
		stats.Discovered()
		stats.Accepted(record(metadata.OriginHuman, "Ada", "", ""), 10)
		stats.Errored("x", dataset.ErrIOFailure, errors.New("boom"))

		stats.Reset()
		report := stats.Report()
		Expect(report.Summary.TotalFiles).To(BeZero())
		Expect(report.Summary.ProcessedFiles).To(BeZero())
		Expect(report.Errors).To(BeEmpty())
		Expect(report.FileSize.Total).To(BeZero())
	})
})
