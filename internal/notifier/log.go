package notifier

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the application log. Used when no
// broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Publish logs the notification.
func (n *LogNotifier) Publish(_ context.Context, notification Notification) error {
	n.logger.Info("notification",
		zap.String("type", notification.Type),
		zap.String("recipient_id", notification.RecipientID),
		zap.String("recipient_role", notification.RecipientRole),
		zap.String("title", notification.Title),
		zap.String("body", notification.Body),
	)
	return nil
}

// Close is a no-op.
func (n *LogNotifier) Close() error {
	return nil
}
