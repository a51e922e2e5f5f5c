package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the history queries.
type Queries struct {
	db DBTX
}

// New creates Queries over a connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Check is one poll of the source.
type Check struct {
	ID          int64
	Profile     string
	Fingerprint string
	Changed     bool
	Error       sql.NullString
	CheckedAt   time.Time
}

// Notification is one delivery attempt to the webhook.
type Notification struct {
	ID        int64
	Profile   string
	Kind      string
	Summary   string
	Delivered bool
	Error     sql.NullString
	SentAt    time.Time
}

const createCheck = `
INSERT INTO checks (profile, fingerprint, changed, error, checked_at)
VALUES (?, ?, ?, ?, ?)
`

// CreateCheckParams are the inputs to CreateCheck.
type CreateCheckParams struct {
	Profile     string
	Fingerprint string
	Changed     bool
	Error       sql.NullString
	CheckedAt   time.Time
}

// CreateCheck records a poll.
func (q *Queries) CreateCheck(ctx context.Context, arg CreateCheckParams) (*Check, error) {
	res, err := q.db.ExecContext(ctx, createCheck,
		arg.Profile,
		arg.Fingerprint,
		arg.Changed,
		arg.Error,
		arg.CheckedAt.UTC(),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Check{
		ID:          id,
		Profile:     arg.Profile,
		Fingerprint: arg.Fingerprint,
		Changed:     arg.Changed,
		Error:       arg.Error,
		CheckedAt:   arg.CheckedAt.UTC(),
	}, nil
}

const createNotification = `
INSERT INTO notifications (profile, kind, summary, delivered, error, sent_at)
VALUES (?, ?, ?, ?, ?, ?)
`

// CreateNotificationParams are the inputs to CreateNotification.
type CreateNotificationParams struct {
	Profile   string
	Kind      string
	Summary   string
	Delivered bool
	Error     sql.NullString
	SentAt    time.Time
}

// CreateNotification records a delivery attempt.
func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (*Notification, error) {
	res, err := q.db.ExecContext(ctx, createNotification,
		arg.Profile,
		arg.Kind,
		arg.Summary,
		arg.Delivered,
		arg.Error,
		arg.SentAt.UTC(),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Notification{
		ID:        id,
		Profile:   arg.Profile,
		Kind:      arg.Kind,
		Summary:   arg.Summary,
		Delivered: arg.Delivered,
		Error:     arg.Error,
		SentAt:    arg.SentAt.UTC(),
	}, nil
}

const listRecentChecks = `
SELECT id, profile, fingerprint, changed, error, checked_at
FROM checks
WHERE profile = ?
ORDER BY checked_at DESC, id DESC
LIMIT ?
`

// ListRecentChecksParams are the inputs to ListRecentChecks.
type ListRecentChecksParams struct {
	Profile string
	Limit   int64
}

// ListRecentChecks returns the newest checks for a profile.
func (q *Queries) ListRecentChecks(ctx context.Context, arg ListRecentChecksParams) ([]*Check, error) {
	rows, err := q.db.QueryContext(ctx, listRecentChecks, arg.Profile, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Check
	for rows.Next() {
		var c Check
		if err := rows.Scan(&c.ID, &c.Profile, &c.Fingerprint, &c.Changed, &c.Error, &c.CheckedAt); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRecentNotifications = `
SELECT id, profile, kind, summary, delivered, error, sent_at
FROM notifications
WHERE profile = ?
ORDER BY sent_at DESC, id DESC
LIMIT ?
`

// ListRecentNotificationsParams are the inputs to ListRecentNotifications.
type ListRecentNotificationsParams struct {
	Profile string
	Limit   int64
}

// ListRecentNotifications returns the newest delivery attempts for a profile.
func (q *Queries) ListRecentNotifications(ctx context.Context, arg ListRecentNotificationsParams) ([]*Notification, error) {
	rows, err := q.db.QueryContext(ctx, listRecentNotifications, arg.Profile, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Profile, &n.Kind, &n.Summary, &n.Delivered, &n.Error, &n.SentAt); err != nil {
			return nil, err
		}
		items = append(items, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countChecks = `SELECT COUNT(*) FROM checks WHERE profile = ?`

// CountChecks returns how many polls were recorded for a profile.
func (q *Queries) CountChecks(ctx context.Context, profile string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countChecks, profile).Scan(&count)
	return count, err
}

const countDeliveredNotifications = `
SELECT COUNT(*) FROM notifications WHERE profile = ? AND delivered = 1
`

// CountDeliveredNotifications returns how many notifications were delivered for a profile.
func (q *Queries) CountDeliveredNotifications(ctx context.Context, profile string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countDeliveredNotifications, profile).Scan(&count)
	return count, err
}
