// Package validatecmder provides the validate command: a read-only
// validation pass over a content tree.
package validatecmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/pkg/cliui"
	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/logger"
)

type ValidateCommander struct {
	reportPath string
	lenient    bool
	debug      bool
}

const validateLongDesc string = `Validate provenance metadata across a content tree.

Runs extraction, schema validation, and integrity verification for every
content item without copying anything. Exits 1 when any item fails
validation, making it suitable for CI gates.

Use --lenient to downgrade integrity mismatches to advisory flags.

Examples:
  provtag validate ./corpus
  provtag validate ./corpus --report validation.json
  provtag validate ./corpus --lenient`

const validateShortDesc string = "Validate a content tree without producing output"

func NewValidateCmd() *cobra.Command {
	cmder := &ValidateCommander{}

	cmd := &cobra.Command{
		Use:   "validate <dir>",
		Short: validateShortDesc,
		Long:  validateLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.reportPath, "report", "", "Write the validation report to this path")
	cmd.Flags().BoolVar(&cmder.lenient, "lenient", false, "Flag integrity mismatches instead of failing on them")

	return cmd
}

func (c *ValidateCommander) run(ctx context.Context, root string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	pipeline, err := dataset.New(dataset.Options{
		ContentRoot: root,
		Strict:      !c.lenient,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	summary := result.Report.Summary
	cliui.Header(os.Stdout, "Validation of "+root)
	cliui.KV(os.Stdout, "discovered", summary.TotalFiles)
	cliui.KV(os.Stdout, "valid", summary.ProcessedFiles)
	cliui.KV(os.Stdout, "untagged", summary.SkippedFiles)
	cliui.KV(os.Stdout, "invalid", summary.ErrorFiles)

	for _, entry := range result.Report.Errors {
		fmt.Printf("  %s %s: %s\n", cliui.FailMark, entry.Item, entry.Error)
	}
	for _, item := range result.Flagged {
		fmt.Printf("  %s %s: integrity flagged\n", cliui.WarnMark, item)
	}

	if c.reportPath != "" {
		if err := result.Report.WriteJSON(c.reportPath); err != nil {
			return err
		}
	}

	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
	return nil
}
