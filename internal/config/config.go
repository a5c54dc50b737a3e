package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all wattmon configuration.
type Config struct {
	Meter     MeterConfig     `mapstructure:"meter"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Estimator EstimatorConfig `mapstructure:"estimator"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Report    ReportConfig    `mapstructure:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// MeterConfig defines how the remote meter is reached. Either a raw
// curl command (as copied from a browser) or url/body/headers directly.
type MeterConfig struct {
	CurlCommand     string            `mapstructure:"curl_command"`
	URL             string            `mapstructure:"url"`
	Body            string            `mapstructure:"body"`
	Headers         map[string]string `mapstructure:"headers"`
	IntervalMinutes int               `mapstructure:"interval_minutes"`
	MaxAttempts     int               `mapstructure:"max_attempts"`
	RetryDelay      string            `mapstructure:"retry_delay"`
}

// AlertingConfig defines the low-energy policy and notifier channels.
type AlertingConfig struct {
	Threshold           float64       `mapstructure:"threshold"`
	MaxAlertsPerEpisode int           `mapstructure:"max_alerts_per_episode"`
	Email               EmailConfig   `mapstructure:"email"`
	Webhook             WebhookConfig `mapstructure:"webhook"`
}

// EmailConfig defines SMTP delivery settings.
type EmailConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	SMTPHost   string   `mapstructure:"smtp_host"`
	SMTPPort   int      `mapstructure:"smtp_port"`
	Account    string   `mapstructure:"account"`
	AuthCode   string   `mapstructure:"auth_code"`
	Recipients []string `mapstructure:"recipients"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// EstimatorConfig defines consumption-estimation settings.
type EstimatorConfig struct {
	AssumedIntervalMinutes float64 `mapstructure:"assumed_interval_minutes"`
	BandsFile              string  `mapstructure:"bands_file"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig defines the optional status API.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// ReportConfig defines HTML report output.
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("wattmon")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("meter.interval_minutes", 10)
	v.SetDefault("meter.max_attempts", 3)
	v.SetDefault("meter.retry_delay", "3s")
	v.SetDefault("alerting.threshold", 100.0)
	v.SetDefault("alerting.max_alerts_per_episode", 3)
	v.SetDefault("alerting.email.smtp_host", "smtp.qq.com")
	v.SetDefault("alerting.email.smtp_port", 587)
	v.SetDefault("estimator.assumed_interval_minutes", 10)
	v.SetDefault("storage.path", "wattmon.db")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.listen", ":8980")
	v.SetDefault("report.dir", "web")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Environment variables
	v.SetEnvPrefix("WATTMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Interval returns the polling interval as a duration.
func (m MeterConfig) Interval() time.Duration {
	if m.IntervalMinutes < 1 {
		return 10 * time.Minute
	}
	return time.Duration(m.IntervalMinutes) * time.Minute
}

// RetryDelayDuration parses the retry delay, defaulting to 3s.
func (m MeterConfig) RetryDelayDuration() time.Duration {
	d, err := time.ParseDuration(m.RetryDelay)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}
