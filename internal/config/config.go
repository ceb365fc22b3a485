package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all xcli configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	API      APIConfig      `mapstructure:"api"`
	Media    MediaConfig    `mapstructure:"media"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StorageConfig selects where usage records and the budget live.
// Empty file paths are derived from Dir.
type StorageConfig struct {
	Backend    string `mapstructure:"backend"` // jsonl or sqlite
	Dir        string `mapstructure:"dir"`
	LedgerFile string `mapstructure:"ledger_file"`
	BudgetFile string `mapstructure:"budget_file"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

func (s StorageConfig) LedgerPath() string { return s.resolve(s.LedgerFile, "usage.jsonl") }
func (s StorageConfig) BudgetPath() string { return s.resolve(s.BudgetFile, "budget.json") }
func (s StorageConfig) DBPath() string     { return s.resolve(s.SQLitePath, "xcli.db") }

func (s StorageConfig) resolve(path, name string) string {
	if path != "" {
		return path
	}
	return filepath.Join(s.Dir, name)
}

// AccountsConfig locates the credentials file.
type AccountsConfig struct {
	File string `mapstructure:"file"`
}

// PricingConfig points at an optional YAML file of cost overrides.
type PricingConfig struct {
	File string `mapstructure:"file"`
}

// APIConfig defines the upstream HTTP client.
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	BearerToken string        `mapstructure:"bearer_token"`
}

// MediaConfig tunes chunked uploads.
type MediaConfig struct {
	ChunkSize       int64         `mapstructure:"chunk_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// ServerConfig defines the local usage API.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file, dotenv files and environment variables.
// Dotenv files are ~/.xcli/.env and ./.env.
func Load(cfgFile string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("find home directory: %w", err)
	}
	return LoadWithEnvFiles(cfgFile, filepath.Join(home, ".xcli", ".env"), ".env")
}

// LoadWithEnvFiles is Load with explicit dotenv files. Missing files are
// skipped; variables already in the environment win over dotenv values.
func LoadWithEnvFiles(cfgFile string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("find home directory: %w", err)
	}
	base := filepath.Join(home, ".xcli")

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(base)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("storage.backend", "jsonl")
	v.SetDefault("storage.dir", base)
	v.SetDefault("storage.ledger_file", "")
	v.SetDefault("storage.budget_file", "")
	v.SetDefault("storage.sqlite_path", "")
	v.SetDefault("accounts.file", filepath.Join(base, "accounts.json"))
	v.SetDefault("pricing.file", "")
	v.SetDefault("api.base_url", "https://api.x.com")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.bearer_token", "")
	v.SetDefault("media.chunk_size", 5*1024*1024)
	v.SetDefault("media.poll_interval", "5s")
	v.SetDefault("media.max_poll_attempts", 60)
	v.SetDefault("alerts.slack.enabled", false)
	v.SetDefault("alerts.slack.webhook_url", "")
	v.SetDefault("alerts.slack.channel", "#x-api-costs")
	v.SetDefault("alerts.webhook.enabled", false)
	v.SetDefault("alerts.webhook.url", "")
	v.SetDefault("alerts.webhook.secret", "")
	v.SetDefault("server.listen", "127.0.0.1:8787")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")

	// Environment variables
	v.SetEnvPrefix("XCLI")
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("storage.backend must be jsonl or sqlite, got %q", c.Storage.Backend)
	}
	if c.Media.ChunkSize <= 0 {
		return fmt.Errorf("media.chunk_size must be positive, got %d", c.Media.ChunkSize)
	}
	if c.Media.MaxPollAttempts <= 0 {
		return fmt.Errorf("media.max_poll_attempts must be positive, got %d", c.Media.MaxPollAttempts)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	return nil
}
