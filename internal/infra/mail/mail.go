package mail

import (
	"context"
	"time"

	"ortus/internal/config"

	"github.com/pkg/errors"
)

// Message はHTMLメール1通
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Transport は実際の送信手段（SMTP / SendGrid / ログ）
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

const resetSubject = "Код восстановления пароля - ORTUS Brand"

// ResetCodeMailer はリセットコードのメールを組み立てて送る
type ResetCodeMailer struct {
	transport Transport
	validFor  time.Duration
	now       func() time.Time
}

func NewResetCodeMailer(t Transport, validFor time.Duration) *ResetCodeMailer {
	return &ResetCodeMailer{transport: t, validFor: validFor, now: time.Now}
}

func (m *ResetCodeMailer) SendResetCode(ctx context.Context, recipient, code, displayName string) error {
	body, err := renderResetCode(resetCodeView{
		Name:    displayName,
		Code:    code,
		Minutes: int(m.validFor / time.Minute),
		Year:    m.now().Year(),
	})
	if err != nil {
		return err
	}
	return m.transport.Send(ctx, Message{To: recipient, Subject: resetSubject, HTML: body})
}

// NewTransport は MAIL_PROVIDER に応じた送信手段を返す
func NewTransport(cfg config.MailConfig) (Transport, error) {
	switch cfg.Provider {
	case config.MailProviderSMTP:
		return NewSMTPTransport(cfg), nil
	case config.MailProviderSendGrid:
		return NewSendGridTransport(cfg), nil
	case config.MailProviderLog:
		return NewLogTransport(), nil
	}
	return nil, errors.Errorf("unknown mail provider %q", cfg.Provider)
}
