package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/provtagio/provtag/pkg/codec"
	"github.com/provtagio/provtag/pkg/metadata"
	"github.com/provtagio/provtag/pkg/runindex"
)

// ErrorResponse is the uniform error body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	// Format selects the codec: "sidecar", "header", or "html-meta".
	Format string `json:"format"`
	// Document is the serialized metadata to validate.
	Document string `json:"document"`
	// Strict additionally requires rfc_version to be present and well-formed.
	Strict bool `json:"strict"`
}

// ValidateResponse reports the outcome of a validation request.
type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// MetadataResponse describes the provenance of one content item.
type MetadataResponse struct {
	Path      string            `json:"path"`
	Fields    map[string]string `json:"fields"`
	Custom    map[string]string `json:"custom,omitempty"`
	Valid     bool              `json:"valid"`
	Integrity string            `json:"integrity"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleContent serves a file from the content root. When the item carries
// provenance metadata, the response includes it as a compact header.
func (s *Server) handleContent(c *fiber.Ctx) error {
	full, err := s.resolvePath(c.Params("*"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "content not found"})
	}

	if rec, err := s.extractor.Extract(full); err == nil && rec != nil {
		if value, err := codec.NewHeader().Encode(rec); err == nil {
			c.Set(codec.HeaderName, string(value))
		}
	}

	return c.SendFile(full)
}

// handleMetadata returns the provenance record of a content item together
// with its integrity verdict.
func (s *Server) handleMetadata(c *fiber.Ctx) error {
	full, err := s.resolvePath(c.Params("*"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if _, err := os.Stat(full); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "content not found"})
	}

	rec, err := s.extractor.Extract(full)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error()})
	}
	if rec == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no provenance metadata"})
	}

	resp := MetadataResponse{
		Path:      c.Params("*"),
		Fields:    fieldMap(rec),
		Custom:    rec.Custom,
		Valid:     rec.Validate() == nil,
		Integrity: metadata.VerifyFile(rec, full).String(),
	}

	return c.JSON(resp)
}

// handleValidate decodes a metadata document in any supported format and
// reports whether it forms a valid record.
func (s *Server) handleValidate(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	cdc, err := codecFor(req.Format)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	rec, err := cdc.Decode([]byte(req.Document))
	if err != nil {
		return c.JSON(ValidateResponse{Valid: false, Error: err.Error()})
	}
	if rec == nil {
		return c.JSON(ValidateResponse{Valid: false, Error: "no metadata found in document"})
	}

	validate := rec.Validate
	if req.Strict {
		validate = rec.ValidateStrict
	}
	if err := validate(); err != nil {
		return c.JSON(ValidateResponse{Valid: false, Error: err.Error(), Fields: fieldMap(rec)})
	}

	return c.JSON(ValidateResponse{Valid: true, Fields: fieldMap(rec)})
}

// handleListRuns returns summaries of recorded pipeline runs.
func (s *Server) handleListRuns(c *fiber.Ctx) error {
	if s.runs == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "run index not configured"})
	}

	runs, err := s.runs.List(c.Context())
	if err != nil {
		s.logger.Error("listing runs", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list runs"})
	}

	return c.JSON(map[string]any{
		"count": len(runs),
		"runs":  runs,
	})
}

// handleGetRun returns the full manifest of one recorded run.
func (s *Server) handleGetRun(c *fiber.Ctx) error {
	if s.runs == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "run index not configured"})
	}

	id := c.Params("id")
	manifest, err := s.runs.Get(c.Context(), id)
	if errors.Is(err, runindex.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "run not found"})
	}
	if err != nil {
		s.logger.Error("getting run", "run_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get run"})
	}

	return c.JSON(manifest)
}

// resolvePath maps a request path onto the content root, refusing paths
// that would escape it.
func (s *Server) resolvePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path required")
	}
	clean := filepath.Clean("/" + filepath.FromSlash(rel))
	return filepath.Join(s.config.ContentRoot, clean), nil
}

func fieldMap(rec *metadata.Record) map[string]string {
	fields := codec.Fields(rec)
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value
	}
	return out
}

func codecFor(format string) (codec.Codec, error) {
	switch format {
	case "sidecar", "xml":
		return codec.NewSidecar(), nil
	case "header":
		return codec.NewHeader(), nil
	case "html-meta", "html":
		return codec.NewHTMLMeta(), nil
	default:
		return nil, fmt.Errorf("unknown metadata format %q", format)
	}
}
