package notify

import (
	"context"
	"time"

	"github.com/abdulachik/readmewatch/internal/config"
	"github.com/abdulachik/readmewatch/internal/monitor"
)

// Kind selects the message template.
type Kind int

const (
	// KindStartup announces that the monitor is running.
	KindStartup Kind = iota
	// KindChange reports a detected change.
	KindChange
)

func (k Kind) String() string {
	if k == KindChange {
		return "change"
	}
	return "startup"
}

// Notification represents a notification message.
type Notification struct {
	Kind        Kind
	Profile     config.Profile
	Environment string
	NewRecords  []monitor.Record // Only for record-mode changes
	At          time.Time
}

// Notifier is the interface for sending notifications.
type Notifier interface {
	// Send delivers a notification in a single attempt.
	Send(ctx context.Context, notification Notification) error
}
