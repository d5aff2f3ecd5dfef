package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/core/events"
	"github.com/frahmantamala/bizanalytics/internal/user"
	userPostgres "github.com/frahmantamala/bizanalytics/internal/user/postgres"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that run outside the HTTP server.`,
}

var presenceWorkerCmd = &cobra.Command{
	Use:   "presence",
	Short: "Start the presence sweep",
	Long:  `Periodically mark users inactive once they have been silent past the configured threshold.`,
	Run: func(cmd *cobra.Command, args []string) {
		startPresenceWorker()
	},
}

var (
	sweepInterval  time.Duration
	sweepThreshold time.Duration
)

type presenceSweeper interface {
	SweepInactive(ctx context.Context, threshold time.Duration) (int, error)
}

// runPresenceSweep sweeps once per interval until ctx ends.
func runPresenceSweep(ctx context.Context, sweeper presenceSweeper, cfg internal.PresenceConfig, lg *slog.Logger) {
	ticker := time.NewTicker(cfg.Interval())
	defer ticker.Stop()

	lg.Info("presence sweep started", "interval", cfg.Interval(), "threshold", cfg.Threshold())
	for {
		select {
		case <-ctx.Done():
			lg.Info("presence sweep stopped")
			return
		case <-ticker.C:
			if _, err := sweeper.SweepInactive(ctx, cfg.Threshold()); err != nil {
				lg.Error("presence sweep failed", "error", err)
			}
		}
	}
}

func startPresenceWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	db, err := initGorm(config.Database, lg)
	if err != nil {
		lg.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	presence := config.Presence
	if sweepInterval > 0 {
		presence.SweepInterval = sweepInterval
	}
	if sweepThreshold > 0 {
		presence.InactivityThreshold = sweepThreshold
	}

	// offline events only reach subscribers in this process
	users := user.NewService(userPostgres.NewUserRepository(db), events.NewEventBus(lg), lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("presence worker is running. Press Ctrl+C to stop.")
	runPresenceSweep(ctx, users, presence, lg)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func init() {
	presenceWorkerCmd.Flags().DurationVar(&sweepInterval, "interval", 0, "Sweep interval (overrides config)")
	presenceWorkerCmd.Flags().DurationVar(&sweepThreshold, "threshold", 0, "Inactivity threshold (overrides config)")

	workerCmd.AddCommand(presenceWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
