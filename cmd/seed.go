package main

import (
	"fmt"

	"github.com/locodavid123/parcial1/internal/app"
	"github.com/locodavid123/parcial1/internal/seed"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/cache"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load products from a YAML menu file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			menu, err := seed.Load(file)
			if err != nil {
				return err
			}

			s, err := app.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			// Writes through the catalog service so cached listings are dropped
			var catalogCache service.Cache
			if cfg.Redis.Enabled() {
				c, err := cache.Connect(ctx, &cfg.Redis)
				if err != nil {
					logger.GetLogger().Warn("Redis unavailable, cached catalog may be stale", zap.Error(err))
				} else {
					defer c.Close()
					catalogCache = c
				}
			}

			res, err := seed.Apply(ctx, service.NewCatalogService(s, catalogCache), menu)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %s: %d created, %d updated\n", file, res.Created, res.Updated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "configs/menu.yaml", "Menu file")

	return cmd
}
