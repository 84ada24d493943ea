package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/card-offer-notifier/internal/app"
	"github.com/card-offer-notifier/internal/application/offerjob"
	"github.com/card-offer-notifier/internal/config"
	"github.com/card-offer-notifier/internal/domain"
	"github.com/card-offer-notifier/internal/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile   string
	bootstrap bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "offerjob",
		Short: "Fetch card offers and notify card holders",
		Long: `offerjob scans every held card product, asks the offer service for
current offers, records new notifications and links them to each holder.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")
	rootCmd.PersistentFlags().BoolVar(&bootstrap, "bootstrap", false, "create DynamoDB tables before running")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scheduleCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and builds the services. The returned cleanup must be
// called before exit.
func setup(ctx context.Context) (*config.Config, *zap.Logger, *app.App, func(), error) {
	_ = godotenv.Load(envFile)
	cfg := config.Load()
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	a, err := app.Build(ctx, cfg, log, bootstrap)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, nil, err
	}
	cleanup := func() {
		a.Close()
		_ = log.Sync()
	}
	return cfg, log, a, cleanup, nil
}

func runCmd() *cobra.Command {
	var (
		workers int
		timeout time.Duration
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pass and exit",
		Long:  "Run one pass and exit non-zero when the catalog scan fails. Suitable for cron.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if workers > 0 {
				os.Setenv("JOB_WORKERS", fmt.Sprint(workers))
			}
			if timeout > 0 {
				os.Setenv("JOB_RUN_TIMEOUT", timeout.String())
			}
			_, _, a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := a.Runner.Run(ctx)
			if summary != nil {
				printSummary(cmd, summary, asJSON)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (overrides JOB_WORKERS)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "run deadline (overrides JOB_RUN_TIMEOUT)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func scheduleCmd() *cobra.Command {
	var (
		interval   time.Duration
		runOnStart bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run passes on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if interval == 0 {
				interval = cfg.JobInterval
			}
			if interval <= 0 {
				return errors.New("interval must be positive")
			}
			offerjob.NewScheduler(a.Runner, interval, log.Named("scheduler")).
				WithRunOnStart(runOnStart).
				Start(ctx)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between runs (defaults to JOB_INTERVAL)")
	cmd.Flags().BoolVar(&runOnStart, "now", true, "run once immediately")
	return cmd
}

func printSummary(cmd *cobra.Command, s *domain.JobSummary, asJSON bool) {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(s)
		return
	}
	fmt.Fprintf(out, "run %s: %s in %s\n", s.RunID, s.Outcome(), s.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "  processed:          %d\n", s.Processed)
	fmt.Fprintf(out, "  new notifications:  %d\n", s.NewNotifications)
	fmt.Fprintf(out, "  user notifications: %d\n", s.UserNotificationsCreated)
	fmt.Fprintf(out, "  errors:             %d\n", s.Errors)
	if s.Skipped > 0 {
		fmt.Fprintf(out, "  skipped:            %d\n", s.Skipped)
	}
}
