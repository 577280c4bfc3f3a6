package notification

import "context"

// Recipient identifies who a message is delivered to.
type Recipient struct {
	Email string
	Name  string
}

// Notifier delivers a templated message to a recipient. Implementations are
// collaborators of the business services; a delivery failure is logged by the
// caller and never affects the outcome of the triggering operation.
type Notifier interface {
	Send(ctx context.Context, to Recipient, subject, body string) error
}
