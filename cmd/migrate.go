package main

import (
	"fmt"

	"github.com/locodavid123/parcial1/internal/app"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, indexes and views of the datastore",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if backend == "" {
				backend = cfg.Store.Backend
			}

			s, err := app.OpenBackend(cmd.Context(), cfg, backend)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Migrated %s store\n", s.Name())
			return nil
		},
	}

	cmd.Flags().StringVarP(&backend, "backend", "b", "", "Backend to migrate (postgres, mongo, couchdb); defaults to STORE_BACKEND")

	return cmd
}
