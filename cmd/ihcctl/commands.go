package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ihcportal/booking-backend/internal/config"
	"github.com/ihcportal/booking-backend/internal/database"
	"github.com/ihcportal/booking-backend/internal/utils"
)

const commandTimeout = time.Minute

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres tables or the Mongo indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			stores, err := openStores(ctx, cmd)
			if err != nil {
				return err
			}
			defer stores.Close(context.Background())

			if err := stores.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", stores.Backend)
			return nil
		},
	}
}

func secretsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secrets",
		Short: "Generate a JWT secret and a staff API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSecrets(cmd.OutOrStdout())
		},
	}
}

func writeSecrets(w io.Writer) error {
	jwtSecret, staffKey, err := utils.GenerateServerSecrets()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Add these to your .env file:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "JWT_SECRET=%s\n", jwtSecret)
	fmt.Fprintf(w, "STAFF_API_KEY=%s\n", staffKey)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Keep these secrets out of version control.")
	return nil
}

func clearDataCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear-data",
		Short: "Delete every booking and audit entry (test environments only)",
		Long: `Delete every booking and audit log entry. User accounts are kept.

Refuses to run without --yes, and refuses when ENVIRONMENT=production.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to clear data without --yes")
			}
			_ = godotenv.Load()
			if config.FromEnv().IsProduction() {
				return errors.New("refusing to clear data in production")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			stores, err := openStores(ctx, cmd)
			if err != nil {
				return err
			}
			defer stores.Close(context.Background())

			if err := stores.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bookings and audit logs cleared (%s)\n", stores.Backend)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the deletion")
	return cmd
}

// openStores builds a minimal database config without loading the full
// application config, so maintenance runs without mail or JWT settings.
func openStores(ctx context.Context, cmd *cobra.Command) (*database.Stores, error) {
	_ = godotenv.Load()
	env := config.FromEnv()

	dbCfg := env.Database
	if flagURL, _ := cmd.Flags().GetString("database-url"); flagURL != "" {
		dbCfg.URL = flagURL
	}
	if dbCfg.URL == "" {
		return nil, errors.New("DATABASE_URL is not set and --database-url was not provided")
	}
	dbCfg.MaxConnections = 2
	dbCfg.MaxIdleConnections = 1

	stores, err := database.Open(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return stores, nil
}
