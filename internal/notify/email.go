// Package notify sends operator notifications by email and WhatsApp.
package notify

import (
	"context"
)

// EmailSender delivers one message. Implementations: SMTPSender, SendGridSender.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // plain text
	HTML    string // optional
}
