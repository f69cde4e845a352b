// cmd/tools/schema-migrate/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tradehub/internal/common/config"
	"tradehub/internal/common/database"
	"tradehub/internal/repository"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "schema-migrate",
		Short: "Apply or print the tradehub database schema",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (defaults to configs/config.yaml)")

	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(printCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply the schema to the configured PostgreSQL database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pg.Close()

			ctx := context.Background()
			if err := pg.Ping(ctx); err != nil {
				return err
			}

			n, err := repository.Migrate(ctx, pg.DB)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d statements to %s\n", n, cfg.Database.Postgres.Database)
			return nil
		},
	}
}

func printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the schema statements without connecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, stmt := range repository.Statements() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", stmt)
			}
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
