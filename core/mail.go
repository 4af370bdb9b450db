package core

import (
	"context"
	"net/mail"
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		Body    string // text/plain
	}

	// EmailService is any service that can send emails.
	// Send blocks until the message is handed over or ctx is done.
	EmailService interface {
		Send(ctx context.Context, msg EmailMessage) error
	}
)

func (m EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0
}

func (m EmailMessage) HasContent() bool {
	return m.Body != ""
}
