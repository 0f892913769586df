package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/app"
)

var errResetNotConfirmed = errors.New("schema reset drops every table; pass --yes to confirm")

func (c *cli) newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Provision the roster tables",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ensure",
		Short: "Create any missing tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.OpenStore(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			c.logger.Info("schema ensured")
			return nil
		},
	})

	var confirmed bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every table (destroys all data)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errResetNotConfirmed
			}
			store, err := app.OpenStore(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			c.logger.Warn("dropping and recreating roster tables")
			if err := store.ResetSchema(cmd.Context()); err != nil {
				return fmt.Errorf("reset schema: %w", err)
			}
			c.logger.Info("schema reset", zap.Bool("confirmed", confirmed))
			return nil
		},
	}
	reset.Flags().BoolVar(&confirmed, "yes", false, "confirm the destructive reset")
	cmd.AddCommand(reset)
	return cmd
}
