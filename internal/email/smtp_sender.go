package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPSender envia correos via SMTP usando go-mail.
type SMTPSender struct {
	from     string
	fromName string
	client   *mail.Client
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, useTLS bool) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if port == 0 {
		port = 587
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(15 * time.Second),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	if useTLS {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{
		from:     from,
		fromName: fromName,
		client:   client,
	}, nil
}

func (s *SMTPSender) SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error {
	return s.send(ctx, toEmail, verificationMessage(code, expiresAt))
}

func (s *SMTPSender) SendResetOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error {
	return s.send(ctx, toEmail, resetMessage(code, expiresAt))
}

func (s *SMTPSender) SendWelcome(ctx context.Context, toEmail string, name string) error {
	return s.send(ctx, toEmail, welcomeMessage(name))
}

func (s *SMTPSender) send(ctx context.Context, toEmail string, m message) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}

	msg := mail.NewMsg()
	if strings.TrimSpace(s.fromName) != "" {
		if err := msg.FromFormat(s.fromName, s.from); err != nil {
			return err
		}
	} else if err := msg.From(s.from); err != nil {
		return err
	}
	if err := msg.To(toEmail); err != nil {
		return err
	}
	msg.Subject(m.subject)
	msg.SetBodyString(mail.TypeTextPlain, m.body)

	return s.client.DialAndSendWithContext(ctx, msg)
}
