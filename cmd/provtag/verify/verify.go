// Package verifycmder provides the verify command for checking one
// item's content integrity against its provenance metadata.
package verifycmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/pkg/cliui"
	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/extract"
	"github.com/provtagio/provtag/pkg/logger"
	"github.com/provtagio/provtag/pkg/metadata"
)

type VerifyCommander struct {
	quiet bool
	debug bool
}

const verifyLongDesc string = `Verify the integrity of a tagged content file.

Recovers the file's provenance metadata (sidecar first, then embedded
HTML meta tags), recomputes the SHA-256 hash of the content, and compares
it against the recorded content_hash.

Exits 0 when the hashes match, 1 otherwise.

Examples:
  provtag verify article.md
  provtag verify --quiet page.html && echo trusted`

const verifyShortDesc string = "Verify content integrity against its metadata"

func NewVerifyCmd() *cobra.Command {
	cmder := &VerifyCommander{}

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: verifyShortDesc,
		Long:  verifyLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(args[0])
		},
	}

	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Suppress output, report via exit code only")

	return cmd
}

func (c *VerifyCommander) run(path string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	rec, err := extract.New(log).Extract(path)
	if err != nil {
		return fmt.Errorf("extracting metadata: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no provenance metadata found for %s", path)
	}

	verdict := metadata.VerifyFile(rec, path)

	if !c.quiet {
		mark := cliui.SuccessMark
		if verdict != metadata.VerdictValid {
			mark = cliui.FailMark
		}
		fmt.Printf("  %s %s: %s\n", mark, path, verdict)
		cliui.KV(os.Stdout, "origin", string(rec.Origin))
		cliui.KV(os.Stdout, "author", rec.Author)
		cliui.KV(os.Stdout, codec.FieldContentHash, rec.ContentHash)
	}

	if verdict != metadata.VerdictValid {
		os.Exit(1)
	}
	return nil
}
