package service

import (
	"context"
	"optimal-bank-api/logger"
	"optimal-bank-api/metrics"
	"optimal-bank-api/notification"
)

// notify delivers a message and swallows any failure. Notification outcomes
// never decide the outcome of the business operation that triggered them.
func notify(ctx context.Context, n notification.Notifier, to notification.Recipient, subject, body string) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, to, subject, body); err != nil {
		metrics.NotificationFailures.Inc()
		logger.Log.WithError(err).WithField("recipient", to.Email).Warn("Failed to send notification")
	}
}
