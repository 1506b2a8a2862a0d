// Package provtagcmder
package provtagcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/provtagio/provtag/cmd/provtag/config"
	exportcmder "github.com/provtagio/provtag/cmd/provtag/export"
	filtercmder "github.com/provtagio/provtag/cmd/provtag/filter"
	runscmder "github.com/provtagio/provtag/cmd/provtag/runs"
	servecmder "github.com/provtagio/provtag/cmd/provtag/serve"
	splitcmder "github.com/provtagio/provtag/cmd/provtag/split"
	statscmder "github.com/provtagio/provtag/cmd/provtag/stats"
	tagcmder "github.com/provtagio/provtag/cmd/provtag/tag"
	validatecmder "github.com/provtagio/provtag/cmd/provtag/validate"
	verifycmder "github.com/provtagio/provtag/cmd/provtag/verify"
	watchcmder "github.com/provtagio/provtag/cmd/provtag/watch"
	versioncmder "github.com/provtagio/provtag/cmd/version"
)

const provtagLongDesc string = `Provtag tags, verifies, and curates provenance-labeled content.

Tag individual files:
  provtag tag file.md --origin human --author "Ada"   Write a provenance sidecar
  provtag verify file.md                              Check content integrity
  provtag validate ./corpus                           Validate a whole tree

Curate datasets:
  provtag filter -i ./corpus -o ./clean    Run the full ingestion pipeline
  provtag stats ./corpus                   Dataset statistics without output
  provtag split ./clean                    Train/validation/test splits
  provtag export ./clean -f jsonl          Export for training

Run services:
  provtag serve    Serve tagged content over HTTP
  provtag watch    Re-run the pipeline on content changes`

const provtagShortDesc string = "Provtag - Content Provenance Tagging"

func NewProvtagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provtag",
		Short: provtagShortDesc,
		Long:  provtagLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .provtag/ config directory")

	// Add subcommands
	cmd.AddCommand(tagcmder.NewTagCmd())
	cmd.AddCommand(verifycmder.NewVerifyCmd())
	cmd.AddCommand(validatecmder.NewValidateCmd())
	cmd.AddCommand(filtercmder.NewFilterCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(splitcmder.NewSplitCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(runscmder.NewRunsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
