package main

import (
	"fmt"
	"os"

	"github.com/leasedesk/leasedesk/internal/config"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envPath string
	root := &cobra.Command{
		Use:           "leasedesk-cli",
		Short:         "leasedesk maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envPath, "env", "", "dotenv file to load before reading the environment")

	load := func() error {
		path := envPath
		if path == "" {
			if _, err := os.Stat(".env"); err == nil {
				path = ".env"
			}
		}
		return config.Load(path)
	}

	root.AddCommand(
		migrateCmd(load),
		seedCmd(load),
		makeAdminCmd(load),
		hashPasswordCmd(),
		loadCmd(),
	)
	return root
}

func migrateCmd(load func() error) *cobra.Command {
	var (
		dir    string
		status bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending goose migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(); err != nil {
				return err
			}
			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf("migrations dir %s: %w", dir, err)
			}
			if status {
				return pg.MigrationStatus(config.Get().PostgresWrite(), dir)
			}
			if err := pg.Migrate(config.Get().PostgresWrite(), dir); err != nil {
				return fmt.Errorf("migration: %w", err)
			}
			logger.Info("migrations applied", "dir", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./migrations", "directory holding the SQL migrations")
	cmd.Flags().BoolVar(&status, "status", false, "print the migration status instead of migrating")
	return cmd
}

func seedCmd(load func() error) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo landlord, tenant, property manager and admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(); err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			return seed(cmd.Context(), db, demoPassword)
		},
	}
}

func makeAdminCmd(load func() error) *cobra.Command {
	return &cobra.Command{
		Use:   "make-admin <email>",
		Short: "Promote a landlord to admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(); err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := makeAdmin(cmd.Context(), db, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Landlord %s is now an admin.\n", args[0])
			return nil
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <plain>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := hashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func openDB() (*pg.DB, error) {
	cfg := config.Get()
	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), false)
	if err != nil {
		return nil, fmt.Errorf("connect pg: %w", err)
	}
	return db, nil
}
