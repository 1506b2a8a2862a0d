package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/provtagio/provtag/pkg/codec"
)

// SplitRatios partitions a dataset into training, validation, and test
// sets. Ratios must be non-negative and sum to 1 (within rounding).
type SplitRatios struct {
	Train      float64
	Validation float64
	Test       float64
}

// DefaultSplitRatios is the conventional 80/10/10 partition.
var DefaultSplitRatios = SplitRatios{Train: 0.8, Validation: 0.1, Test: 0.1}

// Validate checks the ratio invariants.
func (r SplitRatios) Validate() error {
	if r.Train < 0 || r.Validation < 0 || r.Test < 0 {
		return fmt.Errorf("split ratios must not be negative")
	}
	if math.Abs(r.Train+r.Validation+r.Test-1.0) > 1e-9 {
		return fmt.Errorf("split ratios must sum to 1, got %v", r.Train+r.Validation+r.Test)
	}
	return nil
}

// Splits holds the partitioned items.
type Splits struct {
	Train      []Item
	Validation []Item
	Test       []Item
}

// Split shuffles items with the given seed and partitions them by the
// ratios. The same seed over the same item list always yields the same
// partition, so splits are reproducible.
func Split(items []Item, ratios SplitRatios, seed int64) (*Splits, error) {
	if err := ratios.Validate(); err != nil {
		return nil, err
	}

	shuffled := make([]Item, len(items))
	copy(shuffled, items)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	trainSize := int(float64(len(shuffled)) * ratios.Train)
	validationSize := int(float64(len(shuffled)) * ratios.Validation)

	return &Splits{
		Train:      shuffled[:trainSize],
		Validation: shuffled[trainSize : trainSize+validationSize],
		Test:       shuffled[trainSize+validationSize:],
	}, nil
}

// WriteTo copies each split's items and their sidecars into
// outputRoot/<split-name>/.
func (s *Splits) WriteTo(outputRoot string) error {
	for name, items := range map[string][]Item{
		"train":      s.Train,
		"validation": s.Validation,
		"test":       s.Test,
	} {
		dir := filepath.Join(outputRoot, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating split directory %s: %w", dir, err)
		}
		for _, item := range items {
			if err := copySplitItem(item, dir); err != nil {
				return err
			}
		}
	}
	return nil
}

func copySplitItem(item Item, dir string) error {
	dest := filepath.Join(dir, filepath.Base(item.Path))

	content, err := os.ReadFile(item.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", item.Path, err)
	}
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}

	sidecar, err := os.ReadFile(codec.SidecarPath(item.Path))
	if err != nil {
		// Items whose record was embedded rather than sidecar-stored get
		// a freshly encoded sidecar so every split is self-describing.
		encoded, encErr := codec.NewSidecar().Encode(item.Record)
		if encErr != nil {
			return fmt.Errorf("encoding sidecar for %s: %w", item.Path, encErr)
		}
		sidecar = encoded
	}
	if err := os.WriteFile(codec.SidecarPath(dest), sidecar, 0o644); err != nil {
		return fmt.Errorf("writing sidecar for %s: %w", dest, err)
	}

	return nil
}
