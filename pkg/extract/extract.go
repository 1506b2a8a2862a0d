// Package extract recovers a provenance record for a content item by
// trying an ordered list of metadata sources. New formats join the chain
// by implementing Source; the pipeline never branches on file extension
// itself.
package extract

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/metadata"
)

// Source is one way a content item's metadata may be stored. TryExtract
// returns (nil, nil) when the source is simply absent for the item; an
// error means the source was present but unusable.
type Source interface {
	Name() string
	TryExtract(itemPath string) (*metadata.Record, error)
}

// Extractor runs sources in a fixed order and returns the first record
// any of them yields.
type Extractor struct {
	sources []Source
	logger  *slog.Logger
}

// New creates an extractor with the default chain: sidecar document first,
// then embedded meta tags for markup items.
func New(logger *slog.Logger) *Extractor {
	return NewWithSources(logger,
		NewSidecarSource(),
		NewHTMLMetaSource(),
	)
}

// NewWithSources creates an extractor with an explicit source chain.
func NewWithSources(logger *slog.Logger, sources ...Source) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{sources: sources, logger: logger}
}

// Extract tries each source in order. A source that exists but fails to
// parse is logged and skipped so a later source can still serve the item.
// When no source yields a record, Extract returns the first failure it
// saw, or (nil, nil) when every source was simply absent — absence of
// metadata is a countable outcome, not an error.
func (e *Extractor) Extract(itemPath string) (*metadata.Record, error) {
	var firstErr error

	for _, src := range e.sources {
		rec, err := src.TryExtract(itemPath)
		if err != nil {
			e.logger.Debug("metadata source failed",
				"source", src.Name(),
				"item", itemPath,
				"error", err,
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", src.Name(), err)
			}
			continue
		}
		if rec != nil {
			return rec, nil
		}
	}

	return nil, firstErr
}

// SidecarSource reads the reserved sidecar document next to the item.
type SidecarSource struct {
	codec *codec.Sidecar
}

// NewSidecarSource creates the sidecar metadata source.
func NewSidecarSource() *SidecarSource {
	return &SidecarSource{codec: codec.NewSidecar()}
}

// Name implements Source.
func (s *SidecarSource) Name() string { return "sidecar" }

// TryExtract implements Source.
func (s *SidecarSource) TryExtract(itemPath string) (*metadata.Record, error) {
	data, err := os.ReadFile(codec.SidecarPath(itemPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sidecar: %w", err)
	}
	return s.codec.Decode(data)
}

// markupExtensions are the item extensions that may embed meta tag pairs.
var markupExtensions = map[string]bool{
	".html":  true,
	".htm":   true,
	".xhtml": true,
}

// HTMLMetaSource scans markup items for embedded provenance meta tags.
type HTMLMetaSource struct {
	codec *codec.HTMLMeta
}

// NewHTMLMetaSource creates the embedded meta tag source.
func NewHTMLMetaSource() *HTMLMetaSource {
	return &HTMLMetaSource{codec: codec.NewHTMLMeta()}
}

// Name implements Source.
func (s *HTMLMetaSource) Name() string { return "html-meta" }

// TryExtract implements Source. Non-markup items never match.
func (s *HTMLMetaSource) TryExtract(itemPath string) (*metadata.Record, error) {
	ext := strings.ToLower(filepath.Ext(itemPath))
	if !markupExtensions[ext] {
		return nil, nil
	}

	data, err := os.ReadFile(itemPath)
	if err != nil {
		return nil, fmt.Errorf("reading item: %w", err)
	}
	return s.codec.Decode(data)
}
