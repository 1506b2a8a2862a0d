package runindex_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/runindex"
)

func sampleManifest(runID string, generatedAt time.Time) *dataset.Manifest {
	return &dataset.Manifest{
		Version:     dataset.ManifestVersion,
		RunID:       runID,
		GeneratedAt: generatedAt,
		Configuration: dataset.ManifestConfig{
			ContentRoot: "/srv/content",
			Strict:      true,
			MaxFileSize: 1024,
		},
		Statistics: &dataset.Report{
			Summary: dataset.Summary{
				TotalFiles:     10,
				ProcessedFiles: 7,
				SkippedFiles:   2,
				ErrorFiles:     1,
				SuccessRate:    70,
			},
		},
		OriginDistribution: map[string]float64{"human": 100},
	}
}

var _ = Describe("Store", func() {
	var (
		store *runindex.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = runindex.Open(":memory:")
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("creates the index file on disk when given a path", func() {
		path := filepath.Join(GinkgoT().TempDir(), "runs.db")
		onDisk, err := runindex.Open(path)
		Expect(err).NotTo(HaveOccurred())
		defer onDisk.Close()

		Expect(onDisk.Put(ctx, sampleManifest("run-disk", time.Now().UTC()))).To(Succeed())
		Expect(path).To(BeAnExistingFile())
	})

	It("round-trips a manifest through Put and Get", func() {
		generated := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
		Expect(store.Put(ctx, sampleManifest("run-1", generated))).To(Succeed())

		got, err := store.Get(ctx, "run-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.RunID).To(Equal("run-1"))
		Expect(got.Configuration.ContentRoot).To(Equal("/srv/content"))
		Expect(got.Configuration.Strict).To(BeTrue())
		Expect(got.Statistics.Summary.ProcessedFiles).To(Equal(7))
		Expect(got.OriginDistribution).To(HaveKeyWithValue("human", 100.0))
	})

	It("returns ErrNotFound for an unknown run", func() {
		_, err := store.Get(ctx, "missing")
		Expect(err).To(MatchError(runindex.ErrNotFound))
	})

	It("rejects incomplete manifests", func() {
		Expect(store.Put(ctx, nil)).To(HaveOccurred())
		Expect(store.Put(ctx, &dataset.Manifest{RunID: "no-stats"})).To(HaveOccurred())
	})

	It("treats re-recording the same run ID as a no-op", func() {
		generated := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
		first := sampleManifest("run-1", generated)
		Expect(store.Put(ctx, first)).To(Succeed())

		changed := sampleManifest("run-1", generated)
		changed.Configuration.ContentRoot = "/elsewhere"
		Expect(store.Put(ctx, changed)).To(Succeed())

		got, err := store.Get(ctx, "run-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Configuration.ContentRoot).To(Equal("/srv/content"))

		runs, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(1))
	})

	It("lists runs most recent first", func() {
		base := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
		Expect(store.Put(ctx, sampleManifest("older", base))).To(Succeed())
		Expect(store.Put(ctx, sampleManifest("newer", base.Add(time.Hour)))).To(Succeed())
		Expect(store.Put(ctx, sampleManifest("newest", base.Add(2*time.Hour)))).To(Succeed())

		runs, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(3))
		Expect(runs[0].RunID).To(Equal("newest"))
		Expect(runs[1].RunID).To(Equal("newer"))
		Expect(runs[2].RunID).To(Equal("older"))
		Expect(runs[0].Strict).To(BeTrue())
		Expect(runs[0].Total).To(Equal(10))
		Expect(runs[0].Errors).To(Equal(1))
	})
})
