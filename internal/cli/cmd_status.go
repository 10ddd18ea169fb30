package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store health, record counts, and the next voucher number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("status does not accept positional arguments")
			}

			rt, err := openRuntime(deps.globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer func() { _ = rt.Close() }()

			ctx := cmd.Context()
			schemaVersion, err := rt.store.SchemaVersion()
			if err != nil {
				return mapCommandError(err)
			}
			voucherCount, err := rt.store.Vouchers.Count(ctx)
			if err != nil {
				return mapCommandError(err)
			}
			nextID, err := rt.store.Vouchers.NextVoucherID(ctx)
			if err != nil {
				return mapCommandError(err)
			}

			if deps.globals.JSON {
				return printJSON(deps.out, map[string]any{
					"db_path":         rt.store.Path(),
					"schema_version":  schemaVersion,
					"voucher_count":   voucherCount,
					"next_voucher_id": nextID,
				})
			}
			if deps.globals.Quiet {
				return nil
			}
			_, err = fmt.Fprintf(
				deps.out,
				"db=%s schema=v%d vouchers=%d next_voucher=%s\n",
				rt.store.Path(),
				schemaVersion,
				voucherCount,
				nextID,
			)
			return err
		},
	}
}
