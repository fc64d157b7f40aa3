package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers one message to one recipient.
type Mailer interface {
	Send(subject, body, from, to string) error
}

type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
}

func (m *SMTPMailer) Send(subject, body, from, to string) error {
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	header := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n"

	if err := smtp.SendMail(m.Host+":"+m.Port, auth, from, []string{to}, []byte(header+body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

type SendgridMailer struct {
	client *sendgrid.Client
}

func NewSendgridMailer(apiKey string) *SendgridMailer {
	return &SendgridMailer{client: sendgrid.NewSendClient(apiKey)}
}

func (m *SendgridMailer) Send(subject, body, from, to string) error {
	message := mail.NewSingleEmail(mail.NewEmail("", from), subject, mail.NewEmail("", to), body, "")
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", to, err)
	}
	// SendGrid answers 202 on success
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

type MailConfig struct {
	Provider       string
	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPassword   string
	SendgridAPIKey string
}

func NewMailer(cfg MailConfig) (Mailer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required for the smtp mail provider")
		}
		return &SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}, nil
	case "sendgrid":
		if cfg.SendgridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid mail provider")
		}
		return NewSendgridMailer(cfg.SendgridAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
