package dataset

import (
	"slices"
	"sync"

	"github.com/provtagio/provtag/pkg/metadata"
)

// Statistics is the streaming aggregator over processed, skipped, and
// errored items. One Statistics lives for one pipeline run: reset at
// start, mutated by every terminal item outcome exactly once, read at
// report time. Updates go through a single mutex so a concurrent
// implementation of item processing cannot race the counters.
type Statistics struct {
	mu sync.Mutex

	total     int
	processed int
	skipped   int
	errored   int

	origins    map[metadata.Origin]int
	authors    map[string]int
	licenses   map[string]int
	toolchains map[string]int

	minSize   int64
	maxSize   int64
	sumSize   int64
	sizeCount int
	sizes     []int64

	compliant         int
	integrityVerified int
	integrityFlagged  int

	errors []ItemError
}

// NewStatistics creates an empty accumulator.
func NewStatistics() *Statistics {
	s := &Statistics{}
	s.reset()
	return s
}

// Reset clears every counter, returning the accumulator to its
// start-of-run state.
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Statistics) reset() {
	s.total = 0
	s.processed = 0
	s.skipped = 0
	s.errored = 0
	s.origins = make(map[metadata.Origin]int)
	s.authors = make(map[string]int)
	s.licenses = make(map[string]int)
	s.toolchains = make(map[string]int)
	s.minSize = 0
	s.maxSize = 0
	s.sumSize = 0
	s.sizeCount = 0
	s.sizes = nil
	s.compliant = 0
	s.integrityVerified = 0
	s.integrityFlagged = 0
	s.errors = nil
}

// Discovered counts one item found during traversal.
func (s *Statistics) Discovered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
}

// Accepted records a processed item and folds its provenance into the
// per-origin, per-author, per-license, and per-toolchain tallies. Only
// derived scalars and sizes are retained, never the record itself.
func (s *Statistics) Accepted(rec *metadata.Record, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processed++
	if rec != nil {
		s.origins[rec.Origin]++
		if rec.Author != "" {
			s.authors[rec.Author]++
		}
		if rec.License != "" {
			s.licenses[rec.License]++
		}
		if rec.CreationTool != "" {
			s.toolchains[rec.CreationTool]++
		}
	}

	if s.sizeCount == 0 || size < s.minSize {
		s.minSize = size
	}
	if size > s.maxSize {
		s.maxSize = size
	}
	s.sumSize += size
	s.sizeCount++
	s.sizes = append(s.sizes, size)
}

// Skipped counts one item that reached a skip outcome (no metadata, or
// rejected by a filter clause).
func (s *Statistics) Skipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

// Errored records one failed item and appends it to the ordered error list.
func (s *Statistics) Errored(item string, kind ErrorKind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errored++
	s.errors = append(s.errors, ItemError{Item: item, Kind: kind, Err: err})
}

// Compliant counts one record that passed schema validation.
func (s *Statistics) Compliant() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compliant++
}

// IntegrityVerified counts one item whose recomputed hash matched.
func (s *Statistics) IntegrityVerified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrityVerified++
}

// IntegrityFlagged counts one tampered item passed through in lenient mode.
func (s *Statistics) IntegrityFlagged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrityFlagged++
}

// Report materializes the aggregate into the statistics report document.
func (s *Statistics) Report() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	successRate := 0.0
	if s.total > 0 {
		successRate = float64(s.processed) / float64(s.total) * 100
	}

	average := 0.0
	if s.sizeCount > 0 {
		average = float64(s.sumSize) / float64(s.sizeCount)
	}

	median := 0.0
	if len(s.sizes) > 0 {
		sorted := make([]int64, len(s.sizes))
		copy(sorted, s.sizes)
		slices.Sort(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			median = float64(sorted[mid-1]+sorted[mid]) / 2
		} else {
			median = float64(sorted[mid])
		}
	}

	origins := make(map[string]int, len(metadata.Origins()))
	for _, o := range metadata.Origins() {
		origins[string(o)] = s.origins[o]
	}

	errs := make([]ErrorEntry, 0, len(s.errors))
	for _, e := range s.errors {
		errs = append(errs, ErrorEntry{Item: e.Item, Error: e.Error()})
	}

	return &Report{
		Summary: Summary{
			TotalFiles:     s.total,
			ProcessedFiles: s.processed,
			SkippedFiles:   s.skipped,
			ErrorFiles:     s.errored,
			SuccessRate:    successRate,
		},
		Origins:    origins,
		Authors:    len(s.authors),
		Licenses:   len(s.licenses),
		Toolchains: len(s.toolchains),
		FileSize: SizeStats{
			Min:     s.minSize,
			Max:     s.maxSize,
			Average: average,
			Median:  median,
			Total:   s.sumSize,
		},
		Errors: errs,
	}
}

// counts returns the scalar counters needed by the manifest.
func (s *Statistics) counts() (processed, errored, compliant, verified, flagged int, originCounts map[metadata.Origin]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	originCounts = make(map[metadata.Origin]int, len(s.origins))
	for o, n := range s.origins {
		originCounts[o] = n
	}
	return s.processed, s.errored, s.compliant, s.integrityVerified, s.integrityFlagged, originCounts
}

// Report is the machine-readable statistics document emitted at the end
// of a run.
type Report struct {
	Summary    Summary        `json:"summary"`
	Origins    map[string]int `json:"origins"`
	Authors    int            `json:"authors"`
	Licenses   int            `json:"licenses"`
	Toolchains int            `json:"toolchains"`
	FileSize   SizeStats      `json:"fileSize"`
	Errors     []ErrorEntry   `json:"errors"`
}

// Summary holds the top-level run counters.
type Summary struct {
	TotalFiles     int     `json:"totalFiles"`
	ProcessedFiles int     `json:"processedFiles"`
	SkippedFiles   int     `json:"skippedFiles"`
	ErrorFiles     int     `json:"errorFiles"`
	SuccessRate    float64 `json:"successRate"`
}

// SizeStats aggregates accepted item byte sizes.
type SizeStats struct {
	Min     int64   `json:"min"`
	Max     int64   `json:"max"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Total   int64   `json:"total"`
}

// ErrorEntry is one (item, error message) pair in report order.
type ErrorEntry struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}
