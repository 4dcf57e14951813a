package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"multitool/internal/cli"
	"multitool/internal/storage"
)

func migrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQLite schema",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default SQLITE_DB_PATH)")

	resolve := func() (string, error) {
		if dbPath != "" {
			return dbPath, nil
		}
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return "", err
		}
		return cfg.SQLiteDBPath, nil
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			if err := storage.RunMigrations(path); err != nil {
				return err
			}
			return printVersion(cmd, path)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			if err := storage.RollbackMigrations(path, steps); err != nil {
				return err
			}
			return printVersion(cmd, path)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			return printVersion(cmd, path)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(cmd *cobra.Command, path string) error {
	v, dirty, err := storage.MigrationVersion(path)
	if err != nil {
		return err
	}
	suffix := ""
	if dirty {
		suffix = " (dirty)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d%s\n", path, v, suffix)
	return nil
}
