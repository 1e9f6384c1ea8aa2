package email

import (
	"context"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/mailer"
)

// MailerAdapter bridges mailer.Service to the Sender interface.
type MailerAdapter struct {
	mailer   mailer.Service
	fromAddr string
	fromName string
}

func NewMailerAdapter(m mailer.Service, fromAddr, fromName string) *MailerAdapter {
	return &MailerAdapter{
		mailer:   m,
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

func (a *MailerAdapter) Send(ctx context.Context, m Message) error {
	email := mailer.Email{
		From:     a.fromAddr,
		FromName: a.fromName,
		To:       []string{m.To},
		Subject:  m.Subject,
		TextBody: m.Text,
		HTMLBody: m.HTML,
	}
	return a.mailer.Send(ctx, email)
}
