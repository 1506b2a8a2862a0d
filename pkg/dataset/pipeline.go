// Package dataset implements the ingestion pipeline that walks a content
// root, recovers provenance metadata for every item, validates and
// integrity-checks it, applies filters, and aggregates the outcomes into
// a statistics report and a run manifest.
package dataset

import (
	"context"
	"errors"
	"io"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/eventstream"
	"github.com/provtagio/provtag/pkg/extract"
	"github.com/provtagio/provtag/pkg/metadata"
)

// DefaultMaxFileSize bounds item reads at 10 MiB unless configured.
const DefaultMaxFileSize = 10 * 1024 * 1024

// defaultExtensions are the content-bearing extensions recognized during
// discovery. The reserved sidecar suffix is always excluded first.
var defaultExtensions = []string{
	".txt", ".md", ".markdown", ".rst",
	".html", ".htm", ".xhtml",
	".json", ".jsonl", ".csv", ".xml", ".yaml", ".yml",
}

// Options configures a pipeline run.
type Options struct {
	// ContentRoot is the dataset to ingest. Must exist and be readable;
	// anything else is fatal before the first item.
	ContentRoot string

	// OutputRoot receives accepted items and their re-encoded sidecars,
	// preserving relative paths. Empty disables copying (validation and
	// statistics runs).
	OutputRoot string

	// Strict makes integrity mismatches errors instead of advisory flags
	// and applies full-schema validation (rfc_version required).
	Strict bool

	// MaxFileSize bounds item sizes; zero means DefaultMaxFileSize.
	MaxFileSize int64

	// Origins is the allowed-origin set. Empty allows all.
	Origins []metadata.Origin

	// Exclude lists base-name exclusion patterns (substring or glob).
	Exclude []string

	// Extensions overrides the recognized content extensions.
	Extensions []string

	// Custom is an optional final filter clause.
	Custom Predicate

	// Logger receives per-item diagnostics. Nil discards them.
	Logger *slog.Logger

	// Publisher receives one event per terminal item. Nil disables
	// event publishing.
	Publisher eventstream.Publisher
}

// Pipeline orchestrates one dataset ingestion run.
type Pipeline struct {
	opts      Options
	filter    *Filter
	extractor *extract.Extractor
	sidecar   *codec.Sidecar
	stats     *Statistics
	logger    *slog.Logger
}

// Result is the caller-visible outcome of a run.
type Result struct {
	Report   *Report
	Manifest *Manifest

	// Accepted lists accepted items by path relative to the content root.
	Accepted []string

	// Flagged lists accepted-but-integrity-flagged items (lenient mode
	// pass-throughs whose hash did not match).
	Flagged []string

	// ExitCode is non-zero only when strict mode is active and at least
	// one item errored.
	ExitCode int
}

// New validates options and builds a pipeline. Invalid option values are
// a ConfigurationError; nothing runs until Run is called.
func New(opts Options) (*Pipeline, error) {
	if opts.ContentRoot == "" {
		return nil, &FatalError{Kind: ErrConfiguration, Err: errors.New("content root is required")}
	}
	if opts.MaxFileSize < 0 {
		return nil, &FatalError{Kind: ErrConfiguration, Err: fmt.Errorf("max file size must not be negative, got %d", opts.MaxFileSize)}
	}
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	filter := &Filter{
		AllowedOrigins: opts.Origins,
		MaxSize:        opts.MaxFileSize,
		Exclude:        opts.Exclude,
		Custom:         opts.Custom,
	}
	if err := filter.Validate(); err != nil {
		return nil, &FatalError{Kind: ErrConfiguration, Err: err}
	}

	return &Pipeline{
		opts:      opts,
		filter:    filter,
		extractor: extract.New(opts.Logger),
		sidecar:   codec.NewSidecar(),
		stats:     NewStatistics(),
		logger:    opts.Logger,
	}, nil
}

// Statistics exposes the run's accumulator, primarily for tests.
func (p *Pipeline) Statistics() *Statistics {
	return p.stats
}

// Run executes discovery through emission. Per-item failures are recorded
// and never abort the run; only a missing or unreadable content root is
// fatal. Cancelling ctx stops scheduling new items; the in-flight item
// finishes so "accepted" and "output written" stay atomic per item.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	info, err := os.Stat(p.opts.ContentRoot)
	if err != nil {
		return nil, &FatalError{Kind: ErrIOFailure, Err: fmt.Errorf("content root: %w", err)}
	}
	if !info.IsDir() {
		return nil, &FatalError{Kind: ErrIOFailure, Err: fmt.Errorf("content root %s is not a directory", p.opts.ContentRoot)}
	}

	items, err := p.discover()
	if err != nil {
		return nil, &FatalError{Kind: ErrIOFailure, Err: err}
	}

	p.stats.Reset()
	result := &Result{}

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		p.stats.Discovered()
		p.processItem(ctx, item, result)
	}

	result.Report = p.stats.Report()
	result.Manifest = p.buildManifest(result.Report)
	if p.opts.Strict && result.Report.Summary.ErrorFiles > 0 {
		result.ExitCode = 1
	}

	return result, nil
}

func (p *Pipeline) discover() ([]string, error) {
	return DiscoverItems(p.opts.ContentRoot, p.opts.Extensions)
}

// processItem drives one item through the per-item state machine. Exactly
// one terminal outcome is recorded, whichever state produced it.
func (p *Pipeline) processItem(ctx context.Context, item string, result *Result) {
	rel, err := filepath.Rel(p.opts.ContentRoot, item)
	if err != nil {
		rel = item
	}

	outcome, rec, size, flagged, itemErr := p.evaluate(item)

	switch outcome {
	case eventstream.OutcomeAccepted:
		p.stats.Accepted(rec, size)
		result.Accepted = append(result.Accepted, rel)
		if flagged {
			result.Flagged = append(result.Flagged, rel)
		}
	case eventstream.OutcomeSkipped:
		p.stats.Skipped()
	case eventstream.OutcomeErrored:
		p.stats.Errored(rel, itemErr.Kind, itemErr.Err)
		p.logger.Debug("item errored", "item", rel, "kind", string(itemErr.Kind), "error", itemErr.Err)
	}

	p.publish(ctx, rel, outcome, rec, size, flagged, itemErr)
}

// evaluate runs extraction, validation, integrity, and filtering for one
// item and reports its terminal outcome.
func (p *Pipeline) evaluate(item string) (eventstream.Outcome, *metadata.Record, int64, bool, *ItemError) {
	info, err := os.Stat(item)
	if err != nil {
		return eventstream.OutcomeErrored, nil, 0, false,
			&ItemError{Item: item, Kind: ErrIOFailure, Err: err}
	}
	size := info.Size()
	name := filepath.Base(item)

	// Size and name clauses run before any parse so unbounded inputs
	// never reach a codec.
	if ok, clause := p.filter.AllowPreRead(size, name); !ok {
		p.logger.Debug("item filtered", "item", item, "clause", clause)
		return eventstream.OutcomeSkipped, nil, size, false, nil
	}

	rec, err := p.extractor.Extract(item)
	if err != nil {
		var verr *metadata.ValidationError
		if errors.As(err, &verr) {
			return eventstream.OutcomeErrored, nil, size, false,
				&ItemError{Item: item, Kind: ErrSchemaViolation, Err: err}
		}
		return eventstream.OutcomeErrored, nil, size, false,
			&ItemError{Item: item, Kind: ErrExtractionFailure, Err: err}
	}
	if rec == nil {
		p.logger.Debug("no metadata found", "item", item)
		return eventstream.OutcomeSkipped, nil, size, false, nil
	}

	// A malformed record is a data-quality defect, distinct from absent
	// metadata: it errors rather than skips.
	var verr *metadata.ValidationError
	if p.opts.Strict {
		verr = rec.ValidateStrict()
	} else {
		verr = rec.Validate()
	}
	if verr != nil {
		return eventstream.OutcomeErrored, rec, size, false,
			&ItemError{Item: item, Kind: ErrSchemaViolation, Err: verr}
	}
	p.stats.Compliant()

	content, err := os.ReadFile(item)
	if err != nil {
		return eventstream.OutcomeErrored, rec, size, false,
			&ItemError{Item: item, Kind: ErrIOFailure, Err: err}
	}

	flagged := false
	switch metadata.Verify(rec, content) {
	case metadata.VerdictValid:
		p.stats.IntegrityVerified()
	case metadata.VerdictTampered:
		if p.opts.Strict {
			return eventstream.OutcomeErrored, rec, size, false,
				&ItemError{Item: item, Kind: ErrIntegrityMismatch, Err: fmt.Errorf("content hash mismatch")}
		}
		flagged = true
		p.stats.IntegrityFlagged()
		p.logger.Warn("integrity mismatch", "item", item)
	case metadata.VerdictUnhashable:
		return eventstream.OutcomeErrored, rec, size, false,
			&ItemError{Item: item, Kind: ErrIOFailure, Err: fmt.Errorf("content not hashable")}
	}

	if ok, clause := p.filter.Allow(rec, size, filepath.Base(item)); !ok {
		p.logger.Debug("item filtered", "item", item, "clause", clause)
		return eventstream.OutcomeSkipped, rec, size, false, nil
	}

	if p.opts.OutputRoot != "" {
		if err := p.emit(item, rec, content); err != nil {
			return eventstream.OutcomeErrored, rec, size, false,
				&ItemError{Item: item, Kind: ErrIOFailure, Err: err}
		}
	}

	return eventstream.OutcomeAccepted, rec, size, flagged, nil
}

// emit copies the item and a freshly re-encoded sidecar into the output
// root, preserving the relative path under the content root.
func (p *Pipeline) emit(item string, rec *metadata.Record, content []byte) error {
	rel, err := filepath.Rel(p.opts.ContentRoot, item)
	if err != nil {
		return fmt.Errorf("resolving relative path: %w", err)
	}

	outPath := filepath.Join(p.opts.OutputRoot, rel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outPath, content, 0o644); err != nil {
		return fmt.Errorf("writing item: %w", err)
	}

	encoded, err := p.sidecar.Encode(rec)
	if err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}
	if err := os.WriteFile(codec.SidecarPath(outPath), encoded, 0o644); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}

	return nil
}

func (p *Pipeline) publish(ctx context.Context, rel string, outcome eventstream.Outcome, rec *metadata.Record, size int64, flagged bool, itemErr *ItemError) {
	if p.opts.Publisher == nil {
		return
	}

	event := &eventstream.ItemEvent{
		SchemaVersion:    eventstream.SchemaVersionV1,
		EventType:        eventstream.EventTypeItemProcessed,
		EventID:          uuid.NewString(),
		EmittedAt:        time.Now().UTC(),
		Item:             rel,
		Outcome:          outcome,
		Size:             size,
		IntegrityFlagged: flagged,
	}
	if rec != nil {
		event.Origin = rec.Origin
	}
	if itemErr != nil {
		event.Error = itemErr.Error()
	}

	if err := p.opts.Publisher.PublishItem(ctx, event); err != nil {
		p.logger.Warn("publishing item event", "item", rel, "error", err)
	}
}
