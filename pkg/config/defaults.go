package config

// Default values for the configuration surface.
const (
	// DefaultMaxFileSize bounds item reads at 10 MiB.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// DefaultLogLevel is the default verbosity.
	DefaultLogLevel = "info"

	// DefaultAPIListen is the default API server address.
	DefaultAPIListen = ":8992"
)

// NewDefaultConfig returns a Config populated with defaults. This is the
// single source of truth for default values; viper and the flag registry
// both read from it.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Pipeline: PipelineConfig{
			Strict:      false,
			MaxFileSize: DefaultMaxFileSize,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		API: APIConfig{
			Listen: DefaultAPIListen,
		},
	}
}
