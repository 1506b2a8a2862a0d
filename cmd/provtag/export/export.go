// Package exportcmder provides the export command for serializing a
// tagged dataset to CSV, JSON, or JSONL.
package exportcmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/pkg/cliui"
	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/logger"
)

type ExportCommander struct {
	format string
	output string
	debug  bool
}

const exportLongDesc string = `Export a tagged dataset for training.

Collects every item in the tree with valid, integrity-verified
provenance metadata and writes one row per item (path, content, origin,
author, timestamp, content_hash, size) in the chosen format.

Examples:
  provtag export ./clean -f jsonl -o dataset.jsonl
  provtag export ./clean -f csv > dataset.csv`

const exportShortDesc string = "Export a tagged dataset to CSV, JSON, or JSONL"

func NewExportCmd() *cobra.Command {
	cmder := &ExportCommander{}

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.format, "format", "f", "jsonl", "Export format: csv, json, or jsonl")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

func (c *ExportCommander) run(root string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	format, err := dataset.ParseExportFormat(c.format)
	if err != nil {
		return err
	}

	items, err := dataset.Collect(root, log)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no valid tagged items found under %s", root)
	}

	out := os.Stdout
	if c.output != "" {
		f, err := os.Create(c.output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", c.output, err)
		}
		defer f.Close()
		out = f
	}

	count, err := dataset.Export(items, format, out)
	if err != nil {
		return err
	}

	if c.output != "" {
		fmt.Printf("  %s Exported %d item(s) to %s\n", cliui.SuccessMark, count, c.output)
	}

	return nil
}
