package main

import (
	"fmt"
	"os"

	"github.com/locodavid123/parcial1/internal/app"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/jwtutil"
	"github.com/spf13/cobra"
)

func createSuperuserCmd() *cobra.Command {
	var in service.CreateUserInput

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create the first superuser account",
		Long: `Create a superuser account.

The password may also be given through SUPERUSER_PASSWORD to keep it out of
the shell history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if in.Password == "" {
				in.Password = os.Getenv("SUPERUSER_PASSWORD")
			}

			s, err := app.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			auth := service.NewAuthService(s, jwtutil.NewJWTUtil(&cfg.JWT), service.NewMailer(&cfg.SMTP), cfg)
			user, err := service.NewUserService(s, auth).CreateSuperuser(ctx, in)
			if err != nil {
				return err
			}
			fmt.Printf("Created superuser %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (or SUPERUSER_PASSWORD)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
