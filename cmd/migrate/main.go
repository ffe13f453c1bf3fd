package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/addrsplit/pkg/database"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "ADDRSPLIT_DB_DSN"

var databaseEnv = &database.Env{
	Host:     "ADDRSPLIT_DB_HOST",
	Port:     "ADDRSPLIT_DB_PORT",
	Name:     "ADDRSPLIT_DB_NAME",
	User:     "ADDRSPLIT_DB_USER",
	Password: "ADDRSPLIT_DB_PASSWORD",
	SSLMode:  "ADDRSPLIT_DB_SSL_MODE",
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the addrsplit schema migrations",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "database connection string (default $"+envDSN+")")

	run := func(fn func(m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator(resolveDSN(dsn))
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(m, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all up migrations",
			RunE: run(func(m *migrate.Migrate, _ []string) error {
				if err := ignoreNoChange(m.Up()); err != nil {
					return fmt.Errorf("run up migrations: %w", err)
				}
				fmt.Println("migrations applied successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Run all down migrations",
			RunE: run(func(m *migrate.Migrate, _ []string) error {
				if err := ignoreNoChange(m.Down()); err != nil {
					return fmt.Errorf("run down migrations: %w", err)
				}
				fmt.Println("migrations reverted successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations (negative reverts)",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(m *migrate.Migrate, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("steps must be a non-zero integer")
				}
				if err := ignoreNoChange(m.Steps(n)); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				fmt.Printf("applied %d migration steps\n", n)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current migration version",
			RunE: run(func(m *migrate.Migrate, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return fmt.Errorf("get version: %w", err)
				}
				fmt.Printf("version: %d, dirty: %v\n", v, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force V",
			Short: "Force set the migration version (use with caution)",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(m *migrate.Migrate, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("version must be an integer")
				}
				if err := m.Force(v); err != nil {
					return fmt.Errorf("force version: %w", err)
				}
				fmt.Printf("forced to version %d\n", v)
				return nil
			}),
		},
	)

	return root
}

// resolveDSN prefers the flag, then ADDRSPLIT_DB_DSN, then the same
// ADDRSPLIT_DB_* variables the server reads, defaulting to a local
// addrsplit database.
func resolveDSN(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(envDSN); v != "" {
		return v
	}
	cfg := database.Config{Name: "addrsplit", User: "addrsplit", Password: "addrsplit"}
	if err := cfg.Finalize(databaseEnv); err != nil {
		return ""
	}
	return cfg.Dsn()
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
