package dataset

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/extract"
	"github.com/provtagio/provtag/pkg/metadata"
)

// Item is one content file with its recovered provenance record, used by
// the export and split operations that run over an already-curated tree.
type Item struct {
	Path   string
	Rel    string
	Size   int64
	Record *metadata.Record
}

// DiscoverItems walks root depth-first in lexical order and returns every
// regular file with a recognized content extension. Sidecar documents are
// never items. An empty extensions slice applies the default set.
func DiscoverItems(root string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[strings.ToLower(e)] = true
	}

	var items []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if codec.IsSidecar(d.Name()) {
			return nil
		}
		if !extSet[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		items = append(items, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return items, nil
}

// Collect discovers items under root and loads the ones carrying a valid,
// integrity-checked record. Items without metadata, with invalid records,
// or failing the hash check are logged and dropped; export and split
// operate on curated data only.
func Collect(root string, logger *slog.Logger) ([]Item, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	paths, err := DiscoverItems(root, nil)
	if err != nil {
		return nil, err
	}

	extractor := extract.New(logger)
	items := make([]Item, 0, len(paths))

	for _, path := range paths {
		rec, err := extractor.Extract(path)
		if err != nil || rec == nil {
			logger.Debug("dropping item without usable metadata", "item", path, "error", err)
			continue
		}
		if verr := rec.Validate(); verr != nil {
			logger.Debug("dropping invalid item", "item", path, "error", verr)
			continue
		}
		if metadata.VerifyFile(rec, path) != metadata.VerdictValid {
			logger.Debug("dropping item failing integrity check", "item", path)
			continue
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		// Size comes from the filesystem, not the record: a sidecar
		// carrying a stale content_length must not skew exports or splits.
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		items = append(items, Item{Path: path, Rel: rel, Size: size, Record: rec})
	}

	return items, nil
}
