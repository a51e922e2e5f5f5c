package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdulachik/readmewatch/internal/config"
	"github.com/abdulachik/readmewatch/internal/db"
	"github.com/abdulachik/readmewatch/internal/monitor"
	"github.com/abdulachik/readmewatch/internal/notify"
)

// Health component names.
const (
	ComponentSource  = "source"
	ComponentWebhook = "webhook"
	ComponentCycle   = "cycle"
)

// History records checks and delivery attempts. *db.Store satisfies it.
type History interface {
	CreateCheck(ctx context.Context, arg db.CreateCheckParams) (*db.Check, error)
	CreateNotification(ctx context.Context, arg db.CreateNotificationParams) (*db.Notification, error)
}

// Scheduler runs the poll/compare/notify loop for one profile.
type Scheduler struct {
	profile  config.Profile
	env      string
	source   monitor.Source
	notifier notify.Notifier
	history  History
	health   *Health

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// Config holds scheduler configuration.
type Config struct {
	Profile     config.Profile
	Environment string
	Source      monitor.Source
	Notifier    notify.Notifier
	History     History // Optional
}

// New creates a new scheduler.
func New(cfg Config) *Scheduler {
	return &Scheduler{
		profile:  cfg.Profile,
		env:      cfg.Environment,
		source:   cfg.Source,
		notifier: cfg.Notifier,
		history:  cfg.History,
		health:   NewHealth(),
		now:      time.Now,
		wait:     sleepContext,
	}
}

// Run announces startup, takes a baseline and polls until ctx is cancelled.
// It returns early only if the startup notification cannot be delivered.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("starting monitor",
		"profile", s.profile.Name,
		"source", s.profile.SourceURL,
		"interval", s.profile.Interval,
		"mode", s.profile.Mode,
	)

	if err := s.Announce(ctx); err != nil {
		return fmt.Errorf("startup notification: %w", err)
	}

	baseline := s.fetchBaseline(ctx)

	for {
		baseline = s.runCycle(ctx, baseline)

		slog.Debug("waiting before next check", "interval", s.profile.Interval)
		if err := s.wait(ctx, s.profile.Interval); err != nil {
			slog.Info("monitor shutting down", "profile", s.profile.Name)
			return err
		}
	}
}

// Announce sends the startup notification.
func (s *Scheduler) Announce(ctx context.Context) error {
	n := notify.Notification{
		Kind:        notify.KindStartup,
		Profile:     s.profile,
		Environment: s.env,
		At:          s.now(),
	}

	err := s.notifier.Send(ctx, n)
	s.recordNotification(ctx, n, err)
	if err != nil {
		s.health.SetUnhealthy(ComponentWebhook, err)
		slog.Error("failed to send startup notification, check the webhook URL", "error", err)
		return err
	}

	s.health.SetHealthy(ComponentWebhook, "startup notification delivered")
	slog.Info("startup notification sent", "profile", s.profile.Name)
	return nil
}

// fetchBaseline takes the first observation. Failure leaves the baseline
// empty and the next successful cycle fills it in.
func (s *Scheduler) fetchBaseline(ctx context.Context) monitor.Fingerprint {
	fp, err := s.source.Fetch(ctx)
	s.recordCheck(ctx, fp, false, err)
	if err != nil {
		s.health.SetUnhealthy(ComponentSource, err)
		slog.Warn("failed to get initial content, will retry",
			"source", s.source.Name(),
			"error", err,
		)
		return monitor.Fingerprint{}
	}

	s.health.SetHealthy(ComponentSource, "baseline established")
	slog.Info("baseline established", "fingerprint", fp.String())
	return fp
}

// runCycle performs one check and returns the baseline for the next one.
func (s *Scheduler) runCycle(ctx context.Context, baseline monitor.Fingerprint) (next monitor.Fingerprint) {
	next = baseline
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			s.health.SetUnhealthy(ComponentCycle, err)
			slog.Error("unexpected error during check, continuing", "error", err)
			next = baseline
			return
		}
		s.health.SetHealthy(ComponentCycle, "completed")
	}()

	slog.Debug("checking for updates", "profile", s.profile.Name)

	current, err := s.source.Fetch(ctx)
	if err != nil {
		s.recordCheck(ctx, current, false, err)
		s.health.SetUnhealthy(ComponentSource, err)
		slog.Warn("fetch failed",
			"source", s.source.Name(),
			"error", err,
			"consecutive_failures", s.health.Failures(ComponentSource),
		)
		return baseline
	}
	s.health.SetHealthy(ComponentSource, "fetched")

	if baseline.IsZero() {
		s.recordCheck(ctx, current, false, nil)
		slog.Info("baseline established", "fingerprint", current.String())
		return current
	}

	change := monitor.Diff(baseline, current)
	s.recordCheck(ctx, current, change.Changed, nil)
	if !change.Changed {
		slog.Info("no new updates found", "profile", s.profile.Name)
		return baseline
	}

	slog.Info("update detected",
		"previous", baseline.String(),
		"current", current.String(),
		"new_records", len(change.NewRecords),
	)

	n := notify.Notification{
		Kind:        notify.KindChange,
		Profile:     s.profile,
		Environment: s.env,
		NewRecords:  change.NewRecords,
		At:          s.now(),
	}

	err = s.notifier.Send(ctx, n)
	s.recordNotification(ctx, n, err)
	if err != nil {
		// Keep the old baseline so the same change is announced next cycle.
		s.health.SetUnhealthy(ComponentWebhook, err)
		slog.Error("failed to send change notification", "error", err)
		return baseline
	}

	s.health.SetHealthy(ComponentWebhook, "change notification delivered")
	slog.Info("change notification sent", "fingerprint", current.String())
	return current
}

func (s *Scheduler) recordCheck(ctx context.Context, fp monitor.Fingerprint, changed bool, err error) {
	if s.history == nil {
		return
	}
	_, herr := s.history.CreateCheck(ctx, db.CreateCheckParams{
		Profile:     s.profile.Name,
		Fingerprint: fp.String(),
		Changed:     changed,
		Error:       nullError(err),
		CheckedAt:   s.now(),
	})
	if herr != nil {
		slog.Warn("failed to record check", "error", herr)
	}
}

func (s *Scheduler) recordNotification(ctx context.Context, n notify.Notification, err error) {
	if s.history == nil {
		return
	}
	_, herr := s.history.CreateNotification(ctx, db.CreateNotificationParams{
		Profile:   s.profile.Name,
		Kind:      n.Kind.String(),
		Summary:   notify.Describe(n),
		Delivered: err == nil,
		Error:     nullError(err),
		SentAt:    n.At,
	})
	if herr != nil {
		slog.Warn("failed to record notification", "error", herr)
	}
}

// Health returns the health tracker.
func (s *Scheduler) Health() *Health {
	return s.health
}

func nullError(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
