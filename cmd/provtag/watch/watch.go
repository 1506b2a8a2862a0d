// Package watchcmder provides the watch command: continuous re-runs of
// the dataset pipeline whenever the content root changes.
package watchcmder

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/pkg/config"
	"github.com/provtagio/provtag/pkg/dataset"
	"github.com/provtagio/provtag/pkg/logger"
	"github.com/provtagio/provtag/pkg/metadata"
)

// debounceWindow coalesces bursts of filesystem events (editors often
// fire several per save) into one pipeline run.
const debounceWindow = 500 * time.Millisecond

type WatchCommander struct {
	input   string
	output  string
	strict  bool
	origins string
	exclude string
	debug   bool
}

const watchLongDesc string = `Watch a content tree and re-run the pipeline on changes.

Runs the ingestion pipeline once, then watches the input tree and
re-runs whenever content or sidecars change. Event bursts are debounced
so one save triggers one run.

Stops on SIGINT/SIGTERM.

Examples:
  provtag watch -i ./corpus -o ./clean
  provtag watch -i ./corpus -o ./clean --origins human --strict`

const watchShortDesc string = "Re-run the pipeline when the content tree changes"

func NewWatchCmd() *cobra.Command {
	cmder := &WatchCommander{}
	flags := config.DefaultFlags()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			if err := config.BindRegisteredFlags(v, cmd, flags,
				config.FlagStrict, config.FlagOrigins, config.FlagExclude, config.FlagOutput,
			); err != nil {
				return err
			}

			cmder.strict = v.GetBool("pipeline.strict")
			cmder.origins = v.GetString("pipeline.origins")
			cmder.exclude = v.GetString("pipeline.exclude")
			cmder.output = v.GetString("pipeline.output_dir")

			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.input, "input", "i", ".", "Content root to watch")
	config.AddBoolFlag(cmd, flags, config.FlagStrict, &cmder.strict)
	config.AddStringFlag(cmd, flags, config.FlagOrigins, &cmder.origins)
	config.AddStringFlag(cmd, flags, config.FlagExclude, &cmder.exclude)
	config.AddStringFlag(cmd, flags, config.FlagOutput, &cmder.output)

	return cmd
}

func (c *WatchCommander) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	origins := make([]metadata.Origin, 0)
	for _, p := range config.SplitList(c.origins) {
		origin, err := metadata.ParseOrigin(p)
		if err != nil {
			return err
		}
		origins = append(origins, origin)
	}

	runOnce := func() {
		pipeline, err := dataset.New(dataset.Options{
			ContentRoot: c.input,
			OutputRoot:  c.output,
			Strict:      c.strict,
			Origins:     origins,
			Exclude:     config.SplitList(c.exclude),
			Logger:      log,
		})
		if err != nil {
			log.Error("building pipeline", "error", err)
			return
		}

		result, err := pipeline.Run(ctx)
		if err != nil {
			log.Error("pipeline run failed", "error", err)
			return
		}

		summary := result.Report.Summary
		log.Info("pipeline run finished",
			"discovered", summary.TotalFiles,
			"accepted", summary.ProcessedFiles,
			"skipped", summary.SkippedFiles,
			"errored", summary.ErrorFiles,
		)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, c.input); err != nil {
		return err
	}

	log.Info("watching for changes", "input", c.input)
	runOnce()

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need to be added to the watch set.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			runOnce()

		case err := <-watcher.Errors:
			log.Warn("watcher error", "error", err)
		}
	}
}

// watchTree registers root and all its subdirectories with the watcher.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}
