package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/eventstream"
	"github.com/provtagio/provtag/pkg/metadata"
)

// capturePublisher records every published event for assertions.
type capturePublisher struct {
	events []*eventstream.ItemEvent
}

func (p *capturePublisher) PublishItem(_ context.Context, event *eventstream.ItemEvent) error {
	if event == nil {
		return eventstream.ErrNilItemEvent
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

var _ = Describe("Pipeline", func() {
	var (
		root string
		out  string
		ctx  context.Context
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		out = GinkgoT().TempDir()
		ctx = context.Background()
	})

	run := func(opts dataset.Options) *dataset.Result {
		opts.ContentRoot = root
		pipeline, err := dataset.New(opts)
		Expect(err).NotTo(HaveOccurred())
		result, err := pipeline.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	Context("configuration", func() {
		It("requires a content root", func() {
			_, err := dataset.New(dataset.Options{})
			var fatal *dataset.FatalError
			Expect(errors.As(err, &fatal)).To(BeTrue())
			Expect(fatal.Kind).To(Equal(dataset.ErrConfiguration))
		})

		It("rejects a negative max size", func() {
			_, err := dataset.New(dataset.Options{ContentRoot: root, MaxFileSize: -1})
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid filter configuration", func() {
			_, err := dataset.New(dataset.Options{ContentRoot: root, Exclude: []string{"[unclosed"}})
			Expect(err).To(HaveOccurred())
		})

		It("fails the run for a missing content root", func() {
			pipeline, err := dataset.New(dataset.Options{ContentRoot: filepath.Join(root, "absent")})
			Expect(err).NotTo(HaveOccurred())

			_, err = pipeline.Run(ctx)
			var fatal *dataset.FatalError
			Expect(errors.As(err, &fatal)).To(BeTrue())
			Expect(fatal.Kind).To(Equal(dataset.ErrIOFailure))
		})
	})

	Context("a correctly tagged item", func() {
		BeforeEach(func() {
			tagItem(root, "article.md", []byte("well tagged content"), metadata.OriginHuman, "Ada")
		})

		It("is accepted and counted as processed", func() {
			result := run(dataset.Options{})
			Expect(result.Accepted).To(Equal([]string{"article.md"}))
			Expect(result.Report.Summary.ProcessedFiles).To(Equal(1))
			Expect(result.Report.Summary.ErrorFiles).To(BeZero())
			Expect(result.ExitCode).To(BeZero())
		})

		It("is copied with a sidecar when an output root is set", func() {
			run(dataset.Options{OutputRoot: out})

			copied, err := os.ReadFile(filepath.Join(out, "article.md"))
			Expect(err).NotTo(HaveOccurred())
			Expect(copied).To(Equal([]byte("well tagged content")))

			sidecar, err := os.ReadFile(codec.SidecarPath(filepath.Join(out, "article.md")))
			Expect(err).NotTo(HaveOccurred())

			rec, err := codec.NewSidecar().Decode(sidecar)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Author).To(Equal("Ada"))
		})
	})

	Context("an item without metadata", func() {
		BeforeEach(func() {
			writeItem(root, "untagged.txt", []byte("no metadata here"))
		})

		It("is skipped, not errored", func() {
			result := run(dataset.Options{})
			Expect(result.Report.Summary.SkippedFiles).To(Equal(1))
			Expect(result.Report.Summary.ErrorFiles).To(BeZero())
			Expect(result.Accepted).To(BeEmpty())
		})

		It("does not fail a strict run", func() {
			result := run(dataset.Options{Strict: true})
			Expect(result.ExitCode).To(BeZero())
		})
	})

	Context("a tampered item", func() {
		BeforeEach(func() {
			path := tagItem(root, "edited.txt", []byte("original content"), metadata.OriginHuman, "Ada")
			Expect(os.WriteFile(path, []byte("content edited after tagging"), 0o644)).To(Succeed())
		})

		It("is flagged and passed through in lenient mode", func() {
			result := run(dataset.Options{OutputRoot: out})
			Expect(result.Accepted).To(Equal([]string{"edited.txt"}))
			Expect(result.Flagged).To(Equal([]string{"edited.txt"}))
			Expect(result.Report.Summary.ErrorFiles).To(BeZero())
		})

		It("is errored in strict mode", func() {
			result := run(dataset.Options{Strict: true})
			Expect(result.Accepted).To(BeEmpty())
			Expect(result.Report.Summary.ErrorFiles).To(Equal(1))
			Expect(result.Report.Errors[0].Error).To(ContainSubstring("integrity_mismatch"))
			Expect(result.ExitCode).To(Equal(1))
		})
	})

	Context("an item with a malformed record", func() {
		BeforeEach(func() {
			path := writeItem(root, "incomplete.txt", []byte("content"))
			doc := `<?xml version="1.0"?>
<content_metadata>
  <origin>human</origin>
  <timestamp>2026-03-14T09:26:53Z</timestamp>
  <content_hash>` + metadata.HashBytes([]byte("content")) + `</content_hash>
  <hash_algorithm>sha256</hash_algorithm>
</content_metadata>`
			Expect(os.WriteFile(codec.SidecarPath(path), []byte(doc), 0o644)).To(Succeed())
		})

		It("is errored as a schema violation naming the missing field", func() {
			result := run(dataset.Options{})
			Expect(result.Report.Summary.ErrorFiles).To(Equal(1))
			Expect(result.Report.Errors[0].Error).To(ContainSubstring("author"))
			Expect(result.Report.Errors[0].Error).To(ContainSubstring("missing_field"))
		})

		It("fails the run only in strict mode", func() {
			Expect(run(dataset.Options{}).ExitCode).To(BeZero())
			Expect(run(dataset.Options{Strict: true}).ExitCode).To(Equal(1))
		})
	})

	Context("filtering", func() {
		BeforeEach(func() {
			tagItem(root, "human.md", []byte("by a person"), metadata.OriginHuman, "Ada")
			tagItem(root, "machine.md", []byte("by a model"), metadata.OriginAI, "gpt-4")
			tagItem(root, "draft-wip.md", []byte("work in progress"), metadata.OriginHuman, "Ada")
		})

		It("skips items rejected by the origin clause", func() {
			result := run(dataset.Options{Origins: []metadata.Origin{metadata.OriginHuman}})
			Expect(result.Accepted).To(ConsistOf("human.md", "draft-wip.md"))
			Expect(result.Report.Summary.SkippedFiles).To(Equal(1))
		})

		It("skips items matching an exclusion pattern", func() {
			result := run(dataset.Options{Exclude: []string{"draft-*"}})
			Expect(result.Accepted).To(ConsistOf("human.md", "machine.md"))
		})

		It("skips oversized items before reading metadata", func() {
			result := run(dataset.Options{MaxFileSize: 5})
			Expect(result.Accepted).To(BeEmpty())
			Expect(result.Report.Summary.SkippedFiles).To(Equal(3))
		})
	})

	Context("discovery", func() {
		It("walks nested directories and ignores unrecognized extensions", func() {
			tagItem(root, "a/deep/nested.md", []byte("nested"), metadata.OriginHuman, "Ada")
			writeItem(root, "binary.png", []byte{0x89, 0x50})

			result := run(dataset.Options{})
			Expect(result.Accepted).To(Equal([]string{filepath.Join("a", "deep", "nested.md")}))
			Expect(result.Report.Summary.TotalFiles).To(Equal(1))
		})

		It("never treats sidecar documents as items", func() {
			tagItem(root, "item.txt", []byte("content"), metadata.OriginHuman, "Ada")

			result := run(dataset.Options{})
			Expect(result.Report.Summary.TotalFiles).To(Equal(1))
		})
	})

	Context("repeated runs", func() {
		It("produces identical reports over an unchanged tree", func() {
			tagItem(root, "good.md", []byte("fine"), metadata.OriginHuman, "Ada")
			tagItem(root, "also-good.md", []byte("also fine"), metadata.OriginAI, "gpt-4")
			writeItem(root, "untagged.txt", []byte("nothing"))
			path := tagItem(root, "edited.txt", []byte("original"), metadata.OriginHuman, "Ada")
			Expect(os.WriteFile(path, []byte("edited"), 0o644)).To(Succeed())

			first := run(dataset.Options{Strict: true})
			second := run(dataset.Options{Strict: true})

			Expect(second.Report).To(Equal(first.Report))
			Expect(second.Accepted).To(Equal(first.Accepted))
			Expect(second.ExitCode).To(Equal(first.ExitCode))
		})
	})

	Context("manifest", func() {
		It("derives distribution and quality metrics from the run", func() {
			tagItem(root, "h1.md", []byte("one"), metadata.OriginHuman, "Ada")
			tagItem(root, "h2.md", []byte("two"), metadata.OriginHuman, "Ada")
			tagItem(root, "m1.md", []byte("three"), metadata.OriginAI, "gpt-4")

			result := run(dataset.Options{})
			manifest := result.Manifest

			Expect(manifest.RunID).NotTo(BeEmpty())
			Expect(manifest.Statistics.Summary.ProcessedFiles).To(Equal(3))
			Expect(manifest.OriginDistribution["human"]).To(BeNumerically("~", 66.6, 0.1))
			Expect(manifest.OriginDistribution["ai"]).To(BeNumerically("~", 33.3, 0.1))
			Expect(manifest.QualityMetrics.MetadataCompliant).To(Equal(3))
			Expect(manifest.QualityMetrics.IntegrityVerified).To(Equal(3))
			Expect(manifest.QualityMetrics.HumanContentPercentage).To(BeNumerically("~", 66.6, 0.1))
		})

		It("echoes the run configuration", func() {
			tagItem(root, "item.md", []byte("x"), metadata.OriginHuman, "Ada")

			result := run(dataset.Options{Strict: true, MaxFileSize: 2048})
			Expect(result.Manifest.Configuration.Strict).To(BeTrue())
			Expect(result.Manifest.Configuration.MaxFileSize).To(Equal(int64(2048)))
			Expect(result.Manifest.Configuration.ContentRoot).To(Equal(root))
		})
	})

	Context("event publishing", func() {
		It("emits one event per terminal item", func() {
			tagItem(root, "good.md", []byte("fine"), metadata.OriginHuman, "Ada")
			writeItem(root, "untagged.txt", []byte("nothing"))

			pub := &capturePublisher{}
			run(dataset.Options{Publisher: pub})

			Expect(pub.events).To(HaveLen(2))

			outcomes := make(map[string]eventstream.Outcome)
			for _, e := range pub.events {
				Expect(e.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
				Expect(e.EventType).To(Equal(eventstream.EventTypeItemProcessed))
				Expect(e.EventID).NotTo(BeEmpty())
				outcomes[e.Item] = e.Outcome
			}
			Expect(outcomes).To(HaveKeyWithValue("good.md", eventstream.OutcomeAccepted))
			Expect(outcomes).To(HaveKeyWithValue("untagged.txt", eventstream.OutcomeSkipped))
		})

		It("marks lenient integrity pass-throughs on the event", func() {
			path := tagItem(root, "edited.txt", []byte("original"), metadata.OriginHuman, "Ada")
			Expect(os.WriteFile(path, []byte("edited"), 0o644)).To(Succeed())

			pub := &capturePublisher{}
			run(dataset.Options{Publisher: pub})

			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Outcome).To(Equal(eventstream.OutcomeAccepted))
			Expect(pub.events[0].IntegrityFlagged).To(BeTrue())
		})
	})
})
