// Package runscmder provides the runs command for inspecting recorded
// pipeline runs.
package runscmder

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provtagio/provtag/pkg/cliui"
	"github.com/provtagio/provtag/pkg/config"
	"github.com/provtagio/provtag/pkg/runindex"
)

type RunsCommander struct {
	sqlitePath string
}

const runsLongDesc string = `Inspect recorded pipeline runs.

Lists the runs recorded in the run index, most recent first. Pass a run
ID to print that run's full manifest as JSON.

The run index location comes from --sqlite, the storage.sqlite_path
config key, or the PROVTAG_STORAGE_SQLITE_PATH environment variable.

Examples:
  provtag runs -s runs.db
  provtag runs -s runs.db 2f1c9a6e-...`

const runsShortDesc string = "Inspect recorded pipeline runs"

func NewRunsCmd() *cobra.Command {
	cmder := &RunsCommander{}
	flags := config.DefaultFlags()

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: runsShortDesc,
		Long:  runsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			if err := config.BindRegisteredFlags(v, cmd, flags, config.FlagSQLite); err != nil {
				return err
			}
			cmder.sqlitePath = v.GetString("storage.sqlite_path")

			if len(args) == 1 {
				return cmder.show(cmd, args[0])
			}
			return cmder.list(cmd)
		},
	}

	config.AddStringFlag(cmd, flags, config.FlagSQLite, &cmder.sqlitePath)

	return cmd
}

func (c *RunsCommander) open() (*runindex.Store, error) {
	if c.sqlitePath == "" {
		return nil, fmt.Errorf("no run index configured (set --sqlite or storage.sqlite_path)")
	}
	return runindex.Open(c.sqlitePath)
}

func (c *RunsCommander) list(cmd *cobra.Command) error {
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	cliui.Header(os.Stdout, fmt.Sprintf("%d recorded run(s)", len(runs)))
	for _, r := range runs {
		mark := cliui.SuccessMark
		if r.Errors > 0 {
			mark = cliui.FailMark
		}
		fmt.Printf("  %s %s  %s\n", mark, r.RunID, r.GeneratedAt.Local().Format("2006-01-02 15:04:05"))
		cliui.KV(os.Stdout, "root", r.ContentRoot)
		cliui.KV(os.Stdout, "accepted", fmt.Sprintf("%d/%d", r.Processed, r.Total))
		cliui.KV(os.Stdout, "errors", r.Errors)
	}

	return nil
}

func (c *RunsCommander) show(cmd *cobra.Command, runID string) error {
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	manifest, err := store.Get(cmd.Context(), runID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	return nil
}
