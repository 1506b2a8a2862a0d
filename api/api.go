package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/provtagio/provtag/pkg/extract"
	"github.com/provtagio/provtag/pkg/runindex"
)

// Server is the API server for serving tagged content and validating
// provenance metadata.
type Server struct {
	config    Config
	extractor *extract.Extractor
	runs      *runindex.Store
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server.
// The run index is injected to allow sharing with the pipeline; it may be
// nil, in which case the run endpoints respond 503.
func NewServer(config Config, runs *runindex.Store, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		extractor: extract.New(logger),
		runs:      runs,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/content/*", s.handleContent)
	app.Get("/metadata/*", s.handleMetadata)
	app.Post("/validate", s.handleValidate)
	app.Get("/runs", s.handleListRuns)
	app.Get("/runs/:id", s.handleGetRun)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"content_root", s.config.ContentRoot,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
