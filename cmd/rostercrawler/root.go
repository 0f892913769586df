package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/app"
	"github.com/JakeFAU/roster-crawler/internal/config"
	"github.com/JakeFAU/roster-crawler/internal/crawler"
	"github.com/JakeFAU/roster-crawler/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// cli carries state shared by every subcommand once PersistentPreRunE has run.
type cli struct {
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:   "rostercrawler",
		Short: "Crawls a public roster site into Postgres.",
		Long: `rostercrawler discovers players from alphabetical listing pages, then visits each
player's profile page to record the teams they played for and the jersey numbers they wore.
Every run is idempotent: facts already in the database are skipped.`,
		SilenceUsage: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if c.logger != nil {
				_ = logging.Sync(c.logger)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "path to a YAML config file")

	cmd.AddCommand(c.newPlayersCmd(), c.newTeamsCmd(), c.newSchemaCmd())
	return cmd
}

func (c *cli) newPlayersCmd() *cobra.Command {
	var letters string
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Listing crawl: insert players found on the letter index pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			expr := c.cfg.Site.Letters
			if cmd.Flags().Changed("letters") {
				expr = letters
			}
			selected, err := crawler.ParseLetters(expr)
			if err != nil {
				return fmt.Errorf("--letters: %w", err)
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				_, err := a.Driver().RunListing(ctx, selected)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&letters, "letters", "", `letters to crawl, e.g. "a-e,x,z" (default from site.letters)`)
	return cmd
}

func (c *cli) newTeamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "Detail crawl: record teams and jersey numbers for every known player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				_, err := a.Driver().RunDetail(ctx)
				return err
			})
		},
	}
}

func (c *cli) withApp(ctx context.Context, run func(context.Context, *app.App) error) error {
	a, err := app.Build(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Close(shutdownCtx)
	}()
	return run(ctx, a)
}
