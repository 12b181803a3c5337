package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "ihcctl",
		Short:        "Maintenance commands for the IHC booking backend",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("database-url", "", "connection string (overrides DATABASE_URL)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(secretsCmd())
	rootCmd.AddCommand(clearDataCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
