// Package cli wires the maintenance surface of the voucher store: first-run
// initialisation, status reporting, and build information. Record-keeping
// itself happens through the service layer; the commands here only
// bootstrap and inspect.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type GlobalOptions struct {
	ConfigPath string
	DataDir    string
	JSON       bool
	Quiet      bool
}

type commandDeps struct {
	out     io.Writer
	globals *GlobalOptions
}

func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	globals := &GlobalOptions{}
	deps := commandDeps{out: out, globals: globals}

	cmd := &cobra.Command{
		Use:           "svms",
		Short:         "Service voucher record keeping",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&globals.ConfigPath, "config", "", "Path to config.toml")
	flags.StringVar(&globals.DataDir, "data-dir", "", "Override the data directory")
	flags.BoolVar(&globals.JSON, "json", false, "Print machine-readable output")
	flags.BoolVar(&globals.Quiet, "quiet", false, "Suppress non-error output")

	cmd.AddCommand(newInitCommand(deps))
	cmd.AddCommand(newStatusCommand(deps))
	cmd.AddCommand(newVersionCommand(out, build))
	cmd.InitDefaultCompletionCmd()
	return cmd
}

func newVersionCommand(out io.Writer, build BuildInfo) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return printJSON(out, build)
			}
			_, err := fmt.Fprintf(out, "version=%s commit=%s build_time=%s\n", build.Version, build.Commit, build.BuildTime)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version as JSON")
	return cmd
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
