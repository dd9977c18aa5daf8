package report

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned by Send when the SMTP settings are
// incomplete. Callers treat it as "skip", not as a delivery failure.
var ErrNotConfigured = eris.New("report: email not configured")

// Mailer sends rendered reports over SMTP with STARTTLS.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // defaults to Username
	To       string
}

// Configured reports whether enough SMTP settings are present to send.
func (m Mailer) Configured() bool {
	return m.Host != "" && m.Username != "" && m.Password != "" && m.To != ""
}

// Send emails the rendered report to the configured recipient.
func (m Mailer) Send(ctx context.Context, r *Report) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	from := m.From
	if from == "" {
		from = m.Username
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return eris.Wrap(err, "report: set from address")
	}
	if err := msg.To(m.To); err != nil {
		return eris.Wrap(err, "report: set to address")
	}
	msg.Subject(r.Subject())
	msg.SetBodyString(mail.TypeTextPlain, r.Render())

	port := m.Port
	if port == 0 {
		port = 587
	}
	client, err := mail.NewClient(m.Host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.Username),
		mail.WithPassword(m.Password),
	)
	if err != nil {
		return eris.Wrap(err, "report: smtp client")
	}
	return eris.Wrap(client.DialAndSendWithContext(ctx, msg), "report: send email")
}
