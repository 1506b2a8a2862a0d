package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/provtagio/provtag/pkg/metadata"
)

// ManifestVersion identifies the manifest document schema.
const ManifestVersion = "1.0"

// Manifest is the final machine-readable summary of a pipeline run,
// consumed by downstream dataset-quality tooling. Its count fields are
// derived purely from the statistics accumulator, so concurrent and
// sequential runs over the same tree produce identical values.
type Manifest struct {
	Version            string             `json:"version"`
	RunID              string             `json:"runId"`
	GeneratedAt        time.Time          `json:"generatedAt"`
	Configuration      ManifestConfig     `json:"configuration"`
	Statistics         *Report            `json:"statistics"`
	OriginDistribution map[string]float64 `json:"originDistribution"`
	QualityMetrics     QualityMetrics     `json:"qualityMetrics"`
}

// ManifestConfig echoes the options the run was executed with.
type ManifestConfig struct {
	ContentRoot string   `json:"contentRoot"`
	OutputRoot  string   `json:"outputRoot,omitempty"`
	Strict      bool     `json:"strict"`
	MaxFileSize int64    `json:"maxFileSize"`
	Origins     []string `json:"origins,omitempty"`
	Exclude     []string `json:"exclude,omitempty"`
}

// QualityMetrics summarizes dataset quality for curation pipelines.
type QualityMetrics struct {
	IntegrityVerified      int     `json:"integrityVerified"`
	MetadataCompliant      int     `json:"metadataCompliant"`
	HumanContentPercentage float64 `json:"humanContentPercentage"`
}

func (p *Pipeline) buildManifest(report *Report) *Manifest {
	processed, _, compliant, verified, _, originCounts := p.stats.counts()

	distribution := make(map[string]float64, len(metadata.Origins()))
	for _, o := range metadata.Origins() {
		pct := 0.0
		if processed > 0 {
			pct = float64(originCounts[o]) / float64(processed) * 100
		}
		distribution[string(o)] = pct
	}

	origins := make([]string, 0, len(p.opts.Origins))
	for _, o := range p.opts.Origins {
		origins = append(origins, string(o))
	}

	return &Manifest{
		Version:     ManifestVersion,
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Configuration: ManifestConfig{
			ContentRoot: p.opts.ContentRoot,
			OutputRoot:  p.opts.OutputRoot,
			Strict:      p.opts.Strict,
			MaxFileSize: p.opts.MaxFileSize,
			Origins:     origins,
			Exclude:     p.opts.Exclude,
		},
		Statistics:         report,
		OriginDistribution: distribution,
		QualityMetrics: QualityMetrics{
			IntegrityVerified:      verified,
			MetadataCompliant:      compliant,
			HumanContentPercentage: distribution[string(metadata.OriginHuman)],
		},
	}
}

// WriteJSON marshals the manifest with indentation to path.
func (m *Manifest) WriteJSON(path string) error {
	return writeJSONFile(path, m)
}

// WriteJSON marshals the report with indentation to path.
func (r *Report) WriteJSON(path string) error {
	return writeJSONFile(path, r)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
