package main

import (
	"context"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/locodavid123/parcial1/internal/app"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			log := logger.GetLogger()
			defer log.Sync()

			log.Info("Starting service", cfg.LogConfig()...)

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			go func() {
				if err := a.Start(); err != nil {
					log.Fatal("Server stopped unexpectedly", zap.Error(err))
				}
			}()

			wait := gfshutdown.GracefulShutdown(
				context.Background(),
				cfg.Server.ShutdownTimeout,
				map[string]gfshutdown.Operation{
					"api": func(ctx context.Context) error {
						log.Info("Graceful shutdown initiated")
						if err := a.Shutdown(ctx); err != nil {
							log.Error("HTTP server shutdown failed", zap.Error(err))
						}
						return a.Close()
					},
				},
			)

			exitCode := <-wait
			log.Info("Service exited", zap.Int("exit_code", exitCode))
			_ = log.Sync()
			os.Exit(exitCode)
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides SERVER_PORT)")

	return cmd
}
