package main

import (
	"fmt"

	"github.com/locodavid123/parcial1/internal/app"
	"github.com/locodavid123/parcial1/internal/transfer"
	"github.com/spf13/cobra"
)

func copyStoreCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "copy-store",
		Short: "Copy every record from one backend to another",
		Long: `Copy users, clients, products and orders between backends, keeping ids.

Records already present in the target are skipped, so the command can be
re-run after a partial copy.

Example:
  restaurant copy-store --from couchdb --to postgres`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == to {
				return fmt.Errorf("--from and --to must differ")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			src, err := app.OpenBackend(ctx, cfg, from)
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := app.OpenBackend(ctx, cfg, to)
			if err != nil {
				return err
			}
			defer dst.Close()
			if err := dst.Migrate(ctx); err != nil {
				return fmt.Errorf("migration of %s failed: %w", to, err)
			}

			report, err := transfer.Copy(ctx, src, dst)
			if report != nil {
				fmt.Printf("users: %d copied, %d skipped\n", report.Users.Copied, report.Users.Skipped)
				fmt.Printf("clients: %d copied, %d skipped\n", report.Clients.Copied, report.Clients.Skipped)
				fmt.Printf("products: %d copied, %d skipped\n", report.Products.Copied, report.Products.Skipped)
				fmt.Printf("orders: %d copied, %d skipped\n", report.Orders.Copied, report.Orders.Skipped)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source backend (postgres, mongo, couchdb)")
	cmd.Flags().StringVar(&to, "to", "", "Target backend (postgres, mongo, couchdb)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
