package email

import "context"

// Message is one notification to one recipient.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SendCancellationConfirmation confirms an unrefunded cancellation.
func SendCancellationConfirmation(ctx context.Context, s Sender, to, name, orderRef string) error {
	subject := "Your cancellation — Australian AI Safety Forum"
	text := "Hi " + name + ",\n\nYour cancellation for order " + orderRef + " has been processed. No payment was refunded automatically; if you paid by invoice, the organisers will be in touch about a manual refund.\n\nAustralian AI Safety Forum"

	html := `
<html>
  <body style="font-family: sans-serif;">
    <h2>Cancellation confirmed</h2>
    <p>Hi ` + name + `,</p>
    <p>Your cancellation for order <strong>` + orderRef + `</strong> has been processed.</p>
    <p>No payment was refunded automatically; if you paid by invoice, the organisers will be in touch about a manual refund.</p>
    <p>Australian AI Safety Forum</p>
  </body>
</html>
`
	return s.Send(ctx, Message{To: to, ToName: name, Subject: subject, HTML: html, Text: text})
}

// SendRefundReceipt confirms a cancellation with a gateway refund.
func SendRefundReceipt(ctx context.Context, s Sender, to, name, orderRef, amount string) error {
	subject := "Your refund — Australian AI Safety Forum"
	text := "Hi " + name + ",\n\nYour cancellation for order " + orderRef + " has been processed and " + amount + " has been refunded to your card. Refunds usually appear within 5–10 business days.\n\nAustralian AI Safety Forum"

	html := `
<html>
  <body style="font-family: sans-serif;">
    <h2>Refund issued</h2>
    <p>Hi ` + name + `,</p>
    <p>Your cancellation for order <strong>` + orderRef + `</strong> has been processed.</p>
    <p><strong>` + amount + `</strong> has been refunded to your card. Refunds usually appear within 5&ndash;10 business days.</p>
    <p>Australian AI Safety Forum</p>
  </body>
</html>
`
	return s.Send(ctx, Message{To: to, ToName: name, Subject: subject, HTML: html, Text: text})
}

// SendApplicationReceived acknowledges a new proposal or funding
// application.
func SendApplicationReceived(ctx context.Context, s Sender, to, name, kind string) error {
	subject := "Application received — Australian AI Safety Forum"
	text := "Hi " + name + ",\n\nThanks — we've received your " + kind + ". You can edit or withdraw it from your dashboard until it has been reviewed.\n\nAustralian AI Safety Forum"

	html := `
<html>
  <body style="font-family: sans-serif;">
    <h2>Application received</h2>
    <p>Hi ` + name + `,</p>
    <p>Thanks &mdash; we&rsquo;ve received your ` + kind + `.</p>
    <p>You can edit or withdraw it from your dashboard until it has been reviewed.</p>
    <p>Australian AI Safety Forum</p>
  </body>
</html>
`
	return s.Send(ctx, Message{To: to, ToName: name, Subject: subject, HTML: html, Text: text})
}
