package mail

import (
	"context"

	"ortus/internal/config"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

type SMTPTransport struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPTransport(cfg config.MailConfig) *SMTPTransport {
	return &SMTPTransport{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.from, t.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	return errors.Wrap(t.dialer.DialAndSend(m), "smtp send")
}
