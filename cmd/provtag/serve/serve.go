// Package servecmder provides the serve command for running the
// provenance API server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/api"
	"github.com/provtagio/provtag/pkg/config"
	"github.com/provtagio/provtag/pkg/logger"
	"github.com/provtagio/provtag/pkg/runindex"
)

type ServeCommander struct {
	listen     string
	content    string
	sqlitePath string
	debug      bool
}

const serveLongDesc string = `Run the provenance API server.

Serves tagged content over HTTP with the compact provenance header
attached, exposes per-item metadata and integrity verdicts, validates
metadata documents in any supported format, and lists recorded pipeline
runs when a run index is configured.

Endpoints:
  GET  /ping              Health check
  GET  /content/<path>    Serve a content file with its provenance header
  GET  /metadata/<path>   Provenance record and integrity verdict
  POST /validate          Decode and validate a metadata document
  GET  /runs              List recorded pipeline runs
  GET  /runs/<id>         Full manifest of one run

Examples:
  provtag serve --content ./clean
  provtag serve --content ./clean --listen :9000 -s runs.db`

const serveShortDesc string = "Run the provenance API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}
	flags := config.DefaultFlags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			if err := config.BindRegisteredFlags(v, cmd, flags,
				config.FlagAPIListen, config.FlagSQLite,
			); err != nil {
				return err
			}

			cmder.listen = v.GetString("api.listen")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")

			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.content, "content", ".", "Content root to serve")
	config.AddStringFlag(cmd, flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, flags, config.FlagSQLite, &cmder.sqlitePath)

	return cmd
}

func (c *ServeCommander) run() error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	var runs *runindex.Store
	if c.sqlitePath != "" {
		var err error
		runs, err = runindex.Open(c.sqlitePath)
		if err != nil {
			return fmt.Errorf("opening run index: %w", err)
		}
		defer runs.Close()
		log.Info("using run index", "path", c.sqlitePath)
	}

	server := api.NewServer(api.Config{
		ListenAddr:  c.listen,
		ContentRoot: c.content,
	}, runs, log)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
