package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/wneessen/go-mail"
)

const emailSubject = "Facility Booking Confirmation"

var emailBody = template.Must(template.New("confirmation").Parse(`Hello {{.UserName}},

Your facility booking is confirmed.

Booking ID: {{.BookingID}}
Sport: {{.SportName}}
Court: {{.CourtNumber}}
Date: {{.Date}}
Time slots:
{{- range .TimeSlots}}
  {{.}}
{{- end}}
Total hours: {{.TotalHours}}
Total price: {{.TotalPrice}}

Show the attached QR code at the front desk:
{{.QRCode}}
`))

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier sends the confirmation over SMTP.
type EmailNotifier struct {
	sender mailSender
	from   string
}

func NewEmailNotifier(cfg SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &EmailNotifier{sender: client, from: cfg.From}, nil
}

func (n *EmailNotifier) Notify(ctx context.Context, to string, s Summary) error {
	msg, err := n.message(to, s)
	if err != nil {
		return err
	}
	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", to, err)
	}
	return nil
}

func (n *EmailNotifier) message(to string, s Summary) (*mail.Msg, error) {
	body, err := renderBody(s)
	if err != nil {
		return nil, err
	}
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("from %q: %w", n.from, err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("to %q: %w", to, err)
	}
	m.Subject(emailSubject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func renderBody(s Summary) (string, error) {
	var buf bytes.Buffer
	if err := emailBody.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}
