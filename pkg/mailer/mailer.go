package mailer

import "context"

// Mailer delivers templated mail to a single recipient. Callers treat
// delivery as fire-and-forget; errors are for logging, not control flow.
type Mailer interface {
	Send(ctx context.Context, to, subject, templateName string, data any) error
}

// Noop discards all mail. Used when SMTP is not configured and in tests.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, templateName string, data any) error {
	return nil
}
