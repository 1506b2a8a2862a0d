// Package api provides an HTTP API server for inspecting provenance-tagged
// content and validating provenance metadata documents.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8992")
	ListenAddr string

	// ContentRoot is the directory of tagged content served under /content.
	ContentRoot string
}
