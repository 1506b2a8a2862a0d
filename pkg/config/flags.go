package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g.,
// --origins on "provtag filter", "provtag stats", and "provtag watch").
type Flag struct {
	// Name is the long flag name (e.g. "origins").
	Name string

	// Shorthand is the one-letter short flag (e.g. "r"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "pipeline.origins").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag registry keys to Flag structs.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagStrict    = "strict"
	FlagMaxSize   = "max-size"
	FlagOrigins   = "origins"
	FlagExclude   = "exclude"
	FlagOutput    = "output"
	FlagSQLite    = "sqlite"
	FlagAPIListen = "api-listen"
)

// DefaultFlags returns the shared flag registry.
func DefaultFlags() FlagSet {
	return FlagSet{
		FlagStrict: {
			Name:        "strict",
			ViperKey:    "pipeline.strict",
			Description: "Treat integrity mismatches and schema violations as run-affecting errors",
		},
		FlagMaxSize: {
			Name:        "max-size",
			ViperKey:    "pipeline.max_file_size",
			Description: "Maximum item size in bytes",
		},
		FlagOrigins: {
			Name:        "origins",
			Shorthand:   "r",
			ViperKey:    "pipeline.origins",
			Description: "Comma-separated allowed origins (human, ai, hybrid)",
		},
		FlagExclude: {
			Name:        "exclude",
			ViperKey:    "pipeline.exclude",
			Description: "Comma-separated base-name exclusion patterns",
		},
		FlagOutput: {
			Name:        "output",
			Shorthand:   "o",
			ViperKey:    "pipeline.output_dir",
			Description: "Output directory for accepted items",
		},
		FlagSQLite: {
			Name:        "sqlite",
			Shorthand:   "s",
			ViperKey:    "storage.sqlite_path",
			Description: "Path to the run index SQLite database",
		},
		FlagAPIListen: {
			Name:        "listen",
			ViperKey:    "api.listen",
			Description: "API server listen address",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddInt64Flag registers an int64 flag on cmd from the given FlagSet.
func AddInt64Flag(cmd *cobra.Command, fs FlagSet, key string, target *int64) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultInt64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Int64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Int64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds each registered flag that was set on cmd to
// its viper key, so flag values take precedence over environment and file
// values.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, keys ...string) error {
	for _, key := range keys {
		def, ok := fs[key]
		if !ok {
			continue
		}
		flag := cmd.Flags().Lookup(def.Name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(def.ViperKey, flag); err != nil {
			return err
		}
	}
	return nil
}
