// Package cli implements the campaignctl commands.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/driveshare/marketing-dispatch/internal/app"
	"github.com/driveshare/marketing-dispatch/internal/config"
	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const defaultStatsLimit = 30

// Command builds the root CLI command.
func Command() *cobra.Command {
	c := &cobra.Command{
		SilenceUsage: true,
		Use:          "campaignctl",
		Long:         "campaignctl runs the marketing campaign and inspects its daily counters without going through the HTTP API.",
	}
	c.AddCommand(
		runCommand(),
		statsCommand(),
		migrateCommand(),
	)
	return c
}

func runCommand() *cobra.Command {
	c := &cobra.Command{
		SilenceUsage: true,
		Use:          "run",
		Short:        "Run the campaign once and print the result.",
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Runner.Run(ctx)
			if err != nil {
				return errors.Wrapf(err, "campaign run %s failed after %d sent", result.RunID, result.Sent)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	return c
}

func statsCommand() *cobra.Command {
	var limit int
	c := &cobra.Command{
		SilenceUsage: true,
		Use:          "stats",
		Short:        "Print the daily send, open and click counters, newest first.",
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.Wrapf(domain.ErrInvalidLimit, "--limit %d", limit)
			}
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Stats.History(cmd.Context(), limit)
			if err != nil {
				return errors.Wrap(err, "reading daily stats")
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	c.Flags().IntVar(&limit, "limit", defaultStatsLimit, "number of days to print")
	return c
}

func migrateCommand() *cobra.Command {
	c := &cobra.Command{
		SilenceUsage: true,
		Use:          "migrate",
		Short:        "Apply the database schema.",
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "failed to load configuration")
			}
			pool, err := app.Connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			return (&app.App{Pool: pool}).Migrate(cmd.Context(), cfg)
		},
	}
	return c
}

func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialise campaign")
	}
	glog.V(1).Infof("Using database %s", cfg.DBHost)
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "writing output")
}
