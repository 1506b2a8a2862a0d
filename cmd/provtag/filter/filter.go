// Package filtercmder provides the filter command: the full dataset
// ingestion pipeline from discovery through manifest generation.
package filtercmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/pkg/cliui"
	"github.com/provtagio/provtag/pkg/config"
	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/logger"
	"github.com/provtagio/provtag/pkg/metadata"
	"github.com/provtagio/provtag/pkg/runindex"
)

type FilterCommander struct {
	input        string
	output       string
	strict       bool
	maxSize      int64
	origins      string
	exclude      string
	sqlitePath   string
	manifestPath string
	reportPath   string
	quiet        bool
	debug        bool
}

const filterLongDesc string = `Run the dataset ingestion pipeline.

Walks the input tree, recovers provenance metadata for every content
item, validates it, checks content integrity, applies the configured
filters, and aggregates everything into a statistics report and a run
manifest. Accepted items (with re-encoded sidecars) are copied into the
output directory when one is given.

In strict mode, integrity mismatches and schema violations are errors
and a run with any errored item exits non-zero.

Examples:
  provtag filter -i ./corpus -o ./clean
  provtag filter -i ./corpus --origins human,hybrid --strict
  provtag filter -i ./corpus --exclude "draft-*,*.tmp" --report report.json`

const filterShortDesc string = "Run the dataset ingestion pipeline"

func NewFilterCmd() *cobra.Command {
	cmder := &FilterCommander{}
	flags := config.DefaultFlags()

	cmd := &cobra.Command{
		Use:   "filter",
		Short: filterShortDesc,
		Long:  filterLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			if err := config.BindRegisteredFlags(v, cmd, flags,
				config.FlagStrict, config.FlagMaxSize, config.FlagOrigins,
				config.FlagExclude, config.FlagOutput, config.FlagSQLite,
			); err != nil {
				return err
			}

			cmder.strict = v.GetBool("pipeline.strict")
			cmder.maxSize = v.GetInt64("pipeline.max_file_size")
			cmder.origins = v.GetString("pipeline.origins")
			cmder.exclude = v.GetString("pipeline.exclude")
			cmder.output = v.GetString("pipeline.output_dir")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")

			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.input, "input", "i", ".", "Content root to ingest")
	config.AddBoolFlag(cmd, flags, config.FlagStrict, &cmder.strict)
	config.AddInt64Flag(cmd, flags, config.FlagMaxSize, &cmder.maxSize)
	config.AddStringFlag(cmd, flags, config.FlagOrigins, &cmder.origins)
	config.AddStringFlag(cmd, flags, config.FlagExclude, &cmder.exclude)
	config.AddStringFlag(cmd, flags, config.FlagOutput, &cmder.output)
	config.AddStringFlag(cmd, flags, config.FlagSQLite, &cmder.sqlitePath)
	cmd.Flags().StringVar(&cmder.manifestPath, "manifest", "", "Write the run manifest to this path")
	cmd.Flags().StringVar(&cmder.reportPath, "report", "", "Write the statistics report to this path")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Suppress the summary output")

	return cmd
}

func (c *FilterCommander) run(ctx context.Context) error {
	verbosity := "info"
	if c.quiet {
		verbosity = "quiet"
	}
	log := logger.New(
		logger.WithDebug(c.debug),
		logger.WithVerbosity(verbosity),
		logger.WithPretty(true),
	)

	origins, err := parseOrigins(c.origins)
	if err != nil {
		return err
	}

	pipeline, err := dataset.New(dataset.Options{
		ContentRoot: c.input,
		OutputRoot:  c.output,
		Strict:      c.strict,
		MaxFileSize: c.maxSize,
		Origins:     origins,
		Exclude:     config.SplitList(c.exclude),
		Logger:      log,
	})
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	if !c.quiet {
		printSummary(result)
	}

	if c.reportPath != "" {
		if err := result.Report.WriteJSON(c.reportPath); err != nil {
			return err
		}
	}
	manifestPath := c.manifestPath
	if manifestPath == "" && c.output != "" {
		manifestPath = filepath.Join(c.output, "manifest.json")
	}
	if manifestPath != "" {
		if err := result.Manifest.WriteJSON(manifestPath); err != nil {
			return err
		}
	}

	if c.sqlitePath != "" {
		if err := recordRun(ctx, c.sqlitePath, result); err != nil {
			log.Warn("recording run", "error", err)
		}
	}

	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
	return nil
}

func recordRun(ctx context.Context, sqlitePath string, result *dataset.Result) error {
	store, err := runindex.Open(sqlitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Put(ctx, result.Manifest)
}

func printSummary(result *dataset.Result) {
	summary := result.Report.Summary

	cliui.Header(os.Stdout, "Pipeline run "+result.Manifest.RunID)
	cliui.KV(os.Stdout, "discovered", summary.TotalFiles)
	cliui.KV(os.Stdout, "accepted", summary.ProcessedFiles)
	cliui.KV(os.Stdout, "skipped", summary.SkippedFiles)
	cliui.KV(os.Stdout, "errored", summary.ErrorFiles)
	cliui.KV(os.Stdout, "success_rate", fmt.Sprintf("%.1f%%", summary.SuccessRate))

	if len(result.Flagged) > 0 {
		fmt.Printf("\n  %s %d item(s) accepted with integrity flags\n", cliui.WarnMark, len(result.Flagged))
	}
	for _, entry := range result.Report.Errors {
		fmt.Printf("  %s %s: %s\n", cliui.FailMark, entry.Item, entry.Error)
	}
}

func parseOrigins(s string) ([]metadata.Origin, error) {
	parts := config.SplitList(s)
	origins := make([]metadata.Origin, 0, len(parts))
	for _, p := range parts {
		origin, err := metadata.ParseOrigin(p)
		if err != nil {
			return nil, err
		}
		origins = append(origins, origin)
	}
	return origins, nil
}
