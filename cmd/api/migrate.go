package main

import (
	"fmt"

	"github.com/Dan9191/daily-diet/internal/config"
	"github.com/Dan9191/daily-diet/internal/migrations"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func migrateCmd(logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return migrateUp(cfg, logger)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			mg, err := migrations.NewMigrator(cfg.DBConn, logger)
			if err != nil {
				return err
			}
			defer mg.Close()
			return mg.Down(steps)
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			mg, err := migrations.NewMigrator(cfg.DBConn, logger)
			if err != nil {
				return err
			}
			defer mg.Close()
			v, dirty, err := mg.Version()
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	})

	return cmd
}

func migrateUp(cfg *config.Config, logger *logrus.Logger) error {
	mg, err := migrations.NewMigrator(cfg.DBConn, logger)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}
