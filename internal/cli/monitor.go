package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wattmon/wattmon/internal/meter"
	"github.com/wattmon/wattmon/internal/monitor"
	"github.com/wattmon/wattmon/internal/server"
	"github.com/wattmon/wattmon/pkg/alerts"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the polling loop until interrupted",
	Long: `Poll the meter on the configured interval, persist each reading,
and dispatch low-energy alerts. Stops cleanly on SIGINT/SIGTERM.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	endpoint, err := resolveEndpoint(cfg)
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	est, err := initEstimator(cfg)
	if err != nil {
		return err
	}

	acquirer := meter.NewAcquirer(endpoint, cfg.Meter.MaxAttempts, cfg.Meter.RetryDelayDuration(), logger)
	machine := alerts.NewStateMachine(cfg.Alerting.Threshold, cfg.Alerting.MaxAlertsPerEpisode)
	notifiers := initNotifiers(cfg)
	if len(notifiers) == 0 {
		logger.Warn("no notifiers configured, alerts will only be recorded")
	}

	loop := monitor.New(acquirer, store, est, machine, notifiers, cfg.Meter.Interval(), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if cfg.Server.Enabled {
		api := server.NewServer(store, est, cfg.Alerting.Threshold, logger)
		srv = &http.Server{
			Addr:         cfg.Server.Listen,
			Handler:      api.Handler(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("status API listening", "listen", cfg.Server.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status API failed", "error", err)
			}
		}()
	}

	loop.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("status API shutdown", "error", err)
		}
	}
	return nil
}
