package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ogulcanaydogan/xcli/internal/config"
	"github.com/ogulcanaydogan/xcli/pkg/accounts"
	"github.com/ogulcanaydogan/xcli/pkg/alerts"
	"github.com/ogulcanaydogan/xcli/pkg/media"
	"github.com/ogulcanaydogan/xcli/pkg/pricing"
	"github.com/ogulcanaydogan/xcli/pkg/storage"
	"github.com/ogulcanaydogan/xcli/pkg/tracker"
	"github.com/ogulcanaydogan/xcli/pkg/xapi"
)

// app is the object graph one command runs against. Nothing is global: the
// ledger and policy handles are threaded explicitly through the Accountant.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     storage.Store
	estimator *pricing.Estimator
	enforcer  *tracker.Enforcer
	accounts  *accounts.Store
}

// newApp wires config, logging, storage, pricing and the budget enforcer.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	estimator, err := initEstimator(cfg)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	enforcer := tracker.NewEnforcer(store, store, estimator, tracker.EnforcerOptions{
		Prompter:    tracker.NewTerminalPrompter(os.Stdin, os.Stderr),
		Notifiers:   initNotifiers(cfg),
		Diagnostics: os.Stderr,
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		estimator: estimator,
		enforcer:  enforcer,
		accounts:  accounts.NewStore(cfg.Accounts.File),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// caller returns the accounting decorator around an authenticated HTTP client.
// Commands never see the bare client.
func (a *app) caller() (xapi.Caller, error) {
	override := tokenFlag
	if override == "" {
		override = a.cfg.API.BearerToken
	}
	token, err := a.accounts.Token(override)
	if err != nil {
		return nil, err
	}

	client := xapi.NewClient(a.cfg.API.BaseURL, token, a.cfg.API.Timeout, a.logger)
	client.SetUserAgent("xcli/" + Version)
	return tracker.NewAccountant(client, a.enforcer, a.store, a.estimator, a.logger), nil
}

func (a *app) uploader(caller xapi.Caller) *media.Uploader {
	return media.NewUploader(caller, media.Options{
		ChunkSize:       a.cfg.Media.ChunkSize,
		PollInterval:    a.cfg.Media.PollInterval,
		MaxPollAttempts: a.cfg.Media.MaxPollAttempts,
	}, a.logger)
}

// initEstimator loads the built-in price table plus any override file.
func initEstimator(cfg *config.Config) (*pricing.Estimator, error) {
	if cfg.Pricing.File == "" {
		return pricing.Default(), nil
	}
	est, err := pricing.NewFromFile(cfg.Pricing.File)
	if err != nil {
		return nil, fmt.Errorf("load pricing: %w", err)
	}
	return est, nil
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := storage.NewSQLite(cfg.Storage.DBPath(), logger)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		return db, nil
	default:
		return storage.NewFileStore(
			storage.NewJSONLLedger(cfg.Storage.LedgerPath(), logger),
			storage.NewPolicyFile(cfg.Storage.BudgetPath()),
		), nil
	}
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}
