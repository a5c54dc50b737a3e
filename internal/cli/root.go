package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/wattmon/wattmon/internal/config"
	"github.com/wattmon/wattmon/internal/meter"
	"github.com/wattmon/wattmon/pkg/alerts"
	"github.com/wattmon/wattmon/pkg/estimator"
	"github.com/wattmon/wattmon/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wattmon",
	Short: "wattmon - prepaid electric meter monitoring and low-energy alerting",
	Long: `wattmon polls a remote electric meter endpoint, keeps a history of
readings in SQLite, estimates consumption rates and days remaining, and
sends rate-limited low-energy alerts by email or webhook.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./wattmon.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// resolveEndpoint turns meter config into a concrete endpoint. Explicit
// url/body/headers win over a pasted curl command.
func resolveEndpoint(cfg *config.Config) (meter.Endpoint, error) {
	if cfg.Meter.URL != "" {
		return meter.Endpoint{
			URL:     cfg.Meter.URL,
			Body:    cfg.Meter.Body,
			Headers: cfg.Meter.Headers,
		}, nil
	}
	if cfg.Meter.CurlCommand != "" {
		return meter.ParseCurlCommand(cfg.Meter.CurlCommand)
	}
	return meter.Endpoint{}, fmt.Errorf("meter endpoint not configured: set meter.url or meter.curl_command")
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initEstimator creates a consumption estimator from config.
func initEstimator(cfg *config.Config) (*estimator.Estimator, error) {
	bands := estimator.DefaultBands()
	if cfg.Estimator.BandsFile != "" {
		loaded, err := estimator.LoadBands(cfg.Estimator.BandsFile)
		if err != nil {
			return nil, fmt.Errorf("load estimator bands: %w", err)
		}
		bands = loaded
	}
	return estimator.New(cfg.Estimator.AssumedIntervalMinutes, bands), nil
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerting.Email.Enabled && len(cfg.Alerting.Email.Recipients) > 0 {
		notifiers = append(notifiers, alerts.NewEmailNotifier(
			cfg.Alerting.Email.SMTPHost,
			cfg.Alerting.Email.SMTPPort,
			cfg.Alerting.Email.Account,
			cfg.Alerting.Email.AuthCode,
			cfg.Alerting.Email.Recipients,
		))
	}

	if cfg.Alerting.Webhook.Enabled && cfg.Alerting.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerting.Webhook.URL,
			cfg.Alerting.Webhook.Secret,
		))
	}

	return notifiers
}
