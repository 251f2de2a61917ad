package cmd

import (
	"errors"
	"fmt"

	"food-ordering-api/auth"
	"food-ordering-api/config"
	"food-ordering-api/models"
	"food-ordering-api/repository"

	"github.com/spf13/cobra"
)

func createAdminCmd() *cobra.Command {
	var name, username, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long: `Create an admin account. Admins cannot sign up over HTTP.

Example:
  food-ordering-api create-admin --email admin@example.com --username admin --password s3cret!`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || username == "" || len(password) < 6 {
				return errors.New("--email and --username are required and --password must be at least 6 characters")
			}
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := config.OpenDB(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			store := repository.New(db)
			ctx := cmd.Context()
			if err := store.Accounts.EnsureUnique(ctx, email, username); err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			if name == "" {
				name = username
			}
			user := &models.User{Name: name, Username: username, Email: email, PasswordHash: hash, Role: models.RoleAdmin}
			if err := store.Accounts.Create(ctx, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %d\n", email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to username)")
	cmd.Flags().StringVar(&username, "username", "", "login username")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (min 6 characters)")
	return cmd
}
