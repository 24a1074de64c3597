package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Mail is an outbound distributor notification.
type Mail struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

// Mailer delivers order notifications to distributors. Implementations are
// injected; the core never talks to a mail transport directly.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// LogMailer records outbound mail in the log instead of delivering it.
// It is the default in environments without a mail transport configured.
type LogMailer struct {
	Log zerolog.Logger
}

func (m LogMailer) Send(_ context.Context, mail Mail) error {
	m.Log.Info().
		Strs("to", mail.To).
		Strs("cc", mail.Cc).
		Str("subject", mail.Subject).
		Msg("mail suppressed, no transport configured")
	return nil
}
