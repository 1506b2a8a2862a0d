// Package statscmder provides the stats command for summarizing a
// content tree without producing output.
package statscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/pkg/cliui"
	"github.com/provtagio/provtag/pkg/config"
	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/logger"
	"github.com/provtagio/provtag/pkg/metadata"
)

type StatsCommander struct {
	origins string
	asJSON  bool
	debug   bool
}

const statsLongDesc string = `Summarize provenance statistics for a content tree.

Runs the pipeline in lenient, read-only mode and prints the aggregate
report: outcome counts, origin distribution, distinct authors and tools,
and file size statistics.

Examples:
  provtag stats ./corpus
  provtag stats ./corpus --origins human
  provtag stats ./corpus --json > report.json`

const statsShortDesc string = "Summarize provenance statistics for a content tree"

func NewStatsCmd() *cobra.Command {
	cmder := &StatsCommander{}
	flags := config.DefaultFlags()

	cmd := &cobra.Command{
		Use:   "stats <dir>",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), args[0])
		},
	}

	config.AddStringFlag(cmd, flags, config.FlagOrigins, &cmder.origins)
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func (c *StatsCommander) run(ctx context.Context, root string) error {
	verbosity := "info"
	if c.asJSON {
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
		ContentRoot: root,
		Origins:     origins,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	report := result.Report

	if c.asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	summary := report.Summary
	cliui.Header(os.Stdout, "Dataset statistics for "+root)
	cliui.KV(os.Stdout, "discovered", summary.TotalFiles)
	cliui.KV(os.Stdout, "tagged", summary.ProcessedFiles)
	cliui.KV(os.Stdout, "untagged", summary.SkippedFiles)
	cliui.KV(os.Stdout, "errored", summary.ErrorFiles)
	cliui.KV(os.Stdout, "authors", report.Authors)
	cliui.KV(os.Stdout, "licenses", report.Licenses)
	cliui.KV(os.Stdout, "toolchains", report.Toolchains)

	fmt.Println()
	cliui.Header(os.Stdout, "Origins")
	names := make([]string, 0, len(report.Origins))
	for name := range report.Origins {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cliui.KV(os.Stdout, name, report.Origins[name])
	}

	if summary.ProcessedFiles > 0 {
		fmt.Println()
		cliui.Header(os.Stdout, "File sizes (bytes)")
		cliui.KV(os.Stdout, "min", report.FileSize.Min)
		cliui.KV(os.Stdout, "max", report.FileSize.Max)
		cliui.KV(os.Stdout, "average", fmt.Sprintf("%.0f", report.FileSize.Average))
		cliui.KV(os.Stdout, "median", fmt.Sprintf("%.0f", report.FileSize.Median))
	}

	return nil
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
