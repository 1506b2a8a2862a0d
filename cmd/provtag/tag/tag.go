// Package tagcmder provides the tag command for writing provenance
// metadata for a single content file.
package tagcmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/pkg/cliui"
	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/metadata"
	"github.com/provtagio/provtag/pkg/utils"
)

type TagCommander struct {
	origin      string
	author      string
	license     string
	tool        string
	description string
	keywords    string
	language    string
	contentType string
	parentHash  string
	derivation  string
	review      string
	confidence  float64
	printHeader bool
	printHTML   bool
	stdout      bool
}

const tagLongDesc string = `Tag a content file with provenance metadata.

Computes the SHA-256 hash of the file, builds a validated provenance
record, and writes it as a <file>.meta.xml sidecar next to the content.

Examples:
  provtag tag article.md --origin human --author "Ada Lovelace"
  provtag tag summary.txt --origin ai --author "gpt-4" --tool "summarizer/2.1" \
    --parent-hash <hash> --derivation summarization --confidence 0.92
  provtag tag page.html --origin hybrid --author "Team" --header`

const tagShortDesc string = "Tag a file with a provenance sidecar"

func NewTagCmd() *cobra.Command {
	cmder := &TagCommander{}

	cmd := &cobra.Command{
		Use:   "tag <file>",
		Short: tagShortDesc,
		Long:  tagLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmder.run(args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.origin, "origin", "", "Content origin: human, ai, or hybrid (required)")
	cmd.Flags().StringVar(&cmder.author, "author", "", "Content author (required)")
	cmd.Flags().StringVar(&cmder.license, "license", "", "Content license (SPDX identifier)")
	cmd.Flags().StringVar(&cmder.tool, "tool", "", "Creation tool name/version")
	cmd.Flags().StringVar(&cmder.description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&cmder.keywords, "keywords", "", "Comma-separated keywords")
	cmd.Flags().StringVar(&cmder.language, "language", "", "BCP 47 language tag (e.g. en, pt-BR)")
	cmd.Flags().StringVar(&cmder.contentType, "content-type", "", "MIME content type")
	cmd.Flags().StringVar(&cmder.parentHash, "parent-hash", "", "SHA-256 hash of the source content")
	cmd.Flags().StringVar(&cmder.derivation, "derivation", "", "Derivation method (translation, summarization, paraphrase, expansion, remix, other)")
	cmd.Flags().StringVar(&cmder.review, "review-status", "", "Review status (unreviewed, reviewed, verified, disputed)")
	cmd.Flags().Float64Var(&cmder.confidence, "confidence", -1, "Origin confidence score in [0, 1]")
	cmd.Flags().BoolVar(&cmder.printHeader, "header", false, "Also print the compact header form")
	cmd.Flags().BoolVar(&cmder.printHTML, "html", false, "Also print the HTML meta tag form")
	cmd.Flags().BoolVar(&cmder.stdout, "stdout", false, "Print the sidecar instead of writing it")

	cobra.CheckErr(cmd.MarkFlagRequired("origin"))
	cobra.CheckErr(cmd.MarkFlagRequired("author"))

	return cmd
}

func (c *TagCommander) run(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	origin, err := metadata.ParseOrigin(c.origin)
	if err != nil {
		return err
	}

	opts, err := c.options()
	if err != nil {
		return err
	}

	rec, err := metadata.New(origin, c.author, content, opts...)
	if err != nil {
		return fmt.Errorf("building record: %w", err)
	}

	encoded, err := codec.NewSidecar().Encode(rec)
	if err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}

	if c.stdout {
		fmt.Print(string(encoded))
	} else {
		sidecarPath := codec.SidecarPath(path)
		if err := os.WriteFile(sidecarPath, encoded, 0o644); err != nil {
			return fmt.Errorf("writing sidecar: %w", err)
		}
		fmt.Printf("  %s Tagged %s\n", cliui.SuccessMark, path)
		cliui.KV(os.Stdout, "sidecar", sidecarPath)
		cliui.KV(os.Stdout, "content_hash", rec.ContentHash)
	}

	if c.printHeader {
		value, err := codec.NewHeader().Encode(rec)
		if err != nil {
			return fmt.Errorf("encoding header: %w", err)
		}
		fmt.Printf("\n%s: %s\n", codec.HeaderName, string(value))
	}

	if c.printHTML {
		tags, err := codec.NewHTMLMeta().Encode(rec)
		if err != nil {
			return fmt.Errorf("encoding meta tags: %w", err)
		}
		fmt.Printf("\n%s", string(tags))
	}

	return nil
}

// options assembles the optional record fields from flags.
func (c *TagCommander) options() ([]metadata.Option, error) {
	var opts []metadata.Option

	if c.license != "" {
		opts = append(opts, metadata.WithLicense(c.license))
	}
	if c.tool == "" {
		c.tool = "provtag/" + utils.Version
	}
	opts = append(opts, metadata.WithCreationTool(c.tool))
	if c.description != "" {
		opts = append(opts, metadata.WithDescription(c.description))
	}
	if c.keywords != "" {
		opts = append(opts, metadata.WithKeywords(c.keywords))
	}
	if c.language != "" {
		opts = append(opts, metadata.WithLanguage(c.language))
	}
	if c.contentType != "" {
		opts = append(opts, metadata.WithContentType(c.contentType))
	}
	if c.parentHash != "" {
		if c.derivation == "" {
			return nil, fmt.Errorf("--derivation is required with --parent-hash")
		}
		opts = append(opts, metadata.WithParent(c.parentHash, metadata.DerivationMethod(c.derivation)))
	} else if c.derivation != "" {
		return nil, fmt.Errorf("--parent-hash is required with --derivation")
	}
	if c.confidence >= 0 {
		opts = append(opts, metadata.WithConfidence(c.confidence))
	}
	if c.review != "" {
		opts = append(opts, metadata.WithReviewStatus(metadata.ReviewStatus(c.review)))
	}

	return opts, nil
}
