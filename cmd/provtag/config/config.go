// Package configcmder provides the config command for managing persistent
// provtag configuration stored in the .provtag/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent provtag configuration.

Configuration is stored as config.toml in the .provtag/ directory and
provides default values for command flags. CLI flags always take
precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  pipeline.strict, pipeline.max_file_size, pipeline.origins,
  pipeline.exclude, pipeline.output_dir,
  log.level, storage.sqlite_path, api.listen

Use subcommands to get, set, or list configuration values:
  provtag config set <key> <value>    Set a configuration value
  provtag config get <key>            Get a configuration value
  provtag config list                 List all configuration values

Examples:
  provtag config set pipeline.origins human,hybrid
  provtag config set storage.sqlite_path ~/.provtag/runs.db
  provtag config get pipeline.strict
  provtag config list`

const configShortDesc string = "Manage persistent provtag configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
