package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInitCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data directories and initialise the voucher store",
		Long: "Creates the data, documents, and assets directories, opens the " +
			"store (applying any pending schema migrations), seeds the voucher " +
			"numbering base, and creates the bootstrap admin account on first run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("init does not accept positional arguments")
			}

			cfg, err := loadRuntimeConfig(deps.globals)
			if err != nil {
				return mapCommandError(err)
			}
			for _, dir := range []string{cfg.Storage.DataDir, cfg.Storage.DocumentsDir, cfg.Storage.AssetsDir} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return mapCommandError(fmt.Errorf("create directory %s: %w", dir, err))
				}
			}

			rt, err := openRuntime(deps.globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer func() { _ = rt.Close() }()

			if err := seedVoucherBase(cmd.Context(), rt); err != nil {
				return mapCommandError(err)
			}

			schemaVersion, err := rt.store.SchemaVersion()
			if err != nil {
				return mapCommandError(err)
			}

			if deps.globals.JSON {
				return printJSON(deps.out, map[string]any{
					"db_path":        rt.store.Path(),
					"documents_dir":  cfg.Storage.DocumentsDir,
					"schema_version": schemaVersion,
				})
			}
			if deps.globals.Quiet {
				return nil
			}
			_, err = fmt.Fprintf(
				deps.out,
				"store initialised\n  db:        %s\n  documents: %s\n  schema:    v%d\n",
				rt.store.Path(),
				cfg.Storage.DocumentsDir,
				schemaVersion,
			)
			return err
		},
	}
}
