// Package notifier delivers app events to riders and drivers through a
// message broker. Delivery is best-effort; the core never blocks on it.
package notifier

import (
	"context"
	"time"
)

// Recipient roles.
const (
	RoleUser   = "user"
	RoleDriver = "driver"
)

// Notification is one event addressed to a rider or driver.
type Notification struct {
	Type          string            `json:"type"`
	RecipientID   string            `json:"recipient_id"`
	RecipientRole string            `json:"recipient_role"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Data          map[string]string `json:"data,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Notifier publishes notifications.
type Notifier interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}
