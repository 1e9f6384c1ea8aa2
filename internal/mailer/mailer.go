package mailer

import "context"

type Service interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	FromName string // optional: "Australian AI Safety Forum"
	From     string // required: "noreply@aisafetyforum.org.au"

	To  []string
	Cc  []string
	Bcc []string

	Subject string

	TextBody string
	HTMLBody string

	Headers map[string]string // optional extra headers
}

func (e Email) AllRecipients() []string {
	out := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	out = append(out, e.To...)
	out = append(out, e.Cc...)
	out = append(out, e.Bcc...)
	return out
}
