// Package splitcmder provides the split command for partitioning a
// tagged dataset into train/validation/test sets.
package splitcmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/pkg/cliui"
	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/logger"
)

type SplitCommander struct {
	output     string
	train      float64
	validation float64
	test       float64
	seed       int64
	debug      bool
}

const splitLongDesc string = `Split a tagged dataset into train/validation/test sets.

Collects every item in the tree with valid, integrity-verified
provenance metadata, shuffles deterministically with the given seed,
and copies each item (with its sidecar) into train/, validation/, and
test/ subdirectories of the output.

The same seed over the same dataset always produces the same split.

Examples:
  provtag split ./clean -o ./splits
  provtag split ./clean -o ./splits --train 0.9 --validation 0.05 --test 0.05
  provtag split ./clean -o ./splits --seed 7`

const splitShortDesc string = "Split a dataset into train/validation/test sets"

func NewSplitCmd() *cobra.Command {
	cmder := &SplitCommander{}

	cmd := &cobra.Command{
		Use:   "split <dir>",
		Short: splitShortDesc,
		Long:  splitLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Output directory for the splits (required)")
	cmd.Flags().Float64Var(&cmder.train, "train", dataset.DefaultSplitRatios.Train, "Train set ratio")
	cmd.Flags().Float64Var(&cmder.validation, "validation", dataset.DefaultSplitRatios.Validation, "Validation set ratio")
	cmd.Flags().Float64Var(&cmder.test, "test", dataset.DefaultSplitRatios.Test, "Test set ratio")
	cmd.Flags().Int64Var(&cmder.seed, "seed", 42, "Shuffle seed for deterministic splits")

	cobra.CheckErr(cmd.MarkFlagRequired("output"))

	return cmd
}

func (c *SplitCommander) run(root string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	items, err := dataset.Collect(root, log)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no valid tagged items found under %s", root)
	}

	ratios := dataset.SplitRatios{
		Train:      c.train,
		Validation: c.validation,
		Test:       c.test,
	}

	var splits *dataset.Splits
	err = cliui.Step(os.Stdout, fmt.Sprintf("Splitting %d items", len(items)), func() error {
		splits, err = dataset.Split(items, ratios, c.seed)
		if err != nil {
			return err
		}
		return splits.WriteTo(c.output)
	})
	if err != nil {
		return err
	}

	cliui.KV(os.Stdout, "train", len(splits.Train))
	cliui.KV(os.Stdout, "validation", len(splits.Validation))
	cliui.KV(os.Stdout, "test", len(splits.Test))
	cliui.KV(os.Stdout, "output", c.output)

	return nil
}
