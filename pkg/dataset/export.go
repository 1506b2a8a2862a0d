package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/provtagio/provtag/pkg/metadata"
)

// ExportFormat selects a dataset export encoding.
type ExportFormat string

// Export formats.
const (
	FormatCSV   ExportFormat = "csv"
	FormatJSON  ExportFormat = "json"
	FormatJSONL ExportFormat = "jsonl"
)

// ParseExportFormat parses a format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case FormatCSV, FormatJSON, FormatJSONL:
		return ExportFormat(s), nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// exportEntry is one exported row in the JSON and JSONL encodings.
type exportEntry struct {
	Path     string          `json:"path"`
	Content  string          `json:"content"`
	Origin   metadata.Origin `json:"origin"`
	Author   string          `json:"author"`
	Hash     string          `json:"content_hash"`
	Size     int64           `json:"size"`
	Occurred time.Time       `json:"timestamp"`
}

// Export writes the curated items under root to w in the given format.
// It returns the number of exported items. Rows carry the content itself
// so downstream training pipelines need no second pass over the tree.
func Export(items []Item, format ExportFormat, w io.Writer) (int, error) {
	switch format {
	case FormatCSV:
		return exportCSV(items, w)
	case FormatJSON:
		return exportJSON(items, w)
	case FormatJSONL:
		return exportJSONL(items, w)
	}
	return 0, fmt.Errorf("unsupported export format %q", format)
}

func loadEntry(item Item) (*exportEntry, error) {
	content, err := os.ReadFile(item.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", item.Path, err)
	}
	return &exportEntry{
		Path:     item.Rel,
		Content:  string(content),
		Origin:   item.Record.Origin,
		Author:   item.Record.Author,
		Hash:     item.Record.ContentHash,
		Size:     item.Size,
		Occurred: item.Record.Timestamp,
	}, nil
}

func exportCSV(items []Item, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	header := []string{"path", "content", "origin", "author", "timestamp", "content_hash", "size"}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("writing csv header: %w", err)
	}

	count := 0
	for _, item := range items {
		entry, err := loadEntry(item)
		if err != nil {
			return count, err
		}
		row := []string{
			entry.Path,
			entry.Content,
			string(entry.Origin),
			entry.Author,
			entry.Occurred.UTC().Format(time.RFC3339),
			entry.Hash,
			strconv.FormatInt(entry.Size, 10),
		}
		if err := cw.Write(row); err != nil {
			return count, fmt.Errorf("writing csv row: %w", err)
		}
		count++
	}

	cw.Flush()
	return count, cw.Error()
}

func exportJSON(items []Item, w io.Writer) (int, error) {
	entries := make([]*exportEntry, 0, len(items))
	for _, item := range items {
		entry, err := loadEntry(item)
		if err != nil {
			return 0, err
		}
		entries = append(entries, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return 0, fmt.Errorf("encoding json export: %w", err)
	}
	return len(entries), nil
}

func exportJSONL(items []Item, w io.Writer) (int, error) {
	enc := json.NewEncoder(w)
	count := 0
	for _, item := range items {
		entry, err := loadEntry(item)
		if err != nil {
			return count, err
		}
		if err := enc.Encode(entry); err != nil {
			return count, fmt.Errorf("encoding jsonl row: %w", err)
		}
		count++
	}
	return count, nil
}
