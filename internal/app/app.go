package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdulachik/readmewatch/internal/config"
	"github.com/abdulachik/readmewatch/internal/db"
	"github.com/abdulachik/readmewatch/internal/monitor"
	"github.com/abdulachik/readmewatch/internal/notify"
	"github.com/abdulachik/readmewatch/internal/scheduler"
)

// App is the main application container holding all dependencies.
type App struct {
	Config    *config.Config
	Profile   config.Profile
	Store     *db.Store // nil when DATABASE_PATH is unset
	Source    *monitor.GitHubSource
	Notifier  notify.Notifier
	Scheduler *scheduler.Scheduler
}

// New creates a new application instance for the active profile.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	profile, err := cfg.ActiveProfile()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Profile: profile,
		Source:  NewSource(cfg, profile, profile.Mode == config.ModeRecords),
		Notifier: notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     cfg.WebhookURL,
			Mention: cfg.NotifyMention,
			Timeout: cfg.RequestTimeout,
		}),
	}

	var history scheduler.History
	if cfg.DatabasePath != "" {
		store, err := OpenStore(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		a.Store = store
		history = store
	}

	a.Scheduler = scheduler.New(scheduler.Config{
		Profile:     profile,
		Environment: cfg.Environment(),
		Source:      a.Source,
		Notifier:    a.Notifier,
		History:     history,
	})

	return a, nil
}

// NewSource builds the GitHub source for a profile. records forces table
// extraction regardless of the profile's mode.
func NewSource(cfg *config.Config, p config.Profile, records bool) *monitor.GitHubSource {
	return monitor.NewGitHubSource(monitor.GitHubConfig{
		URL:     p.SourceURL,
		Token:   cfg.GitHubToken,
		Private: p.Private,
		Records: records,
		Extract: monitor.ExtractOptions{
			HeaderMarker: p.Marker(),
			MaxRows:      p.MaxRecords,
			HTML:         p.Format() == config.FormatHTML,
		},
		Timeout: cfg.RequestTimeout,
	})
}

// OpenStore opens and migrates the history database.
func OpenStore(ctx context.Context, path string) (*db.Store, error) {
	slog.Debug("opening history database", "path", path)
	store, err := db.NewStore(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes all resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
