package mail

import (
	"context"
	"net/http"
	"time"

	"ortus/internal/config"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGridTransport は v3 Mail Send API を叩く
type SendGridTransport struct {
	apiKey   string
	endpoint string
	from     string
	fromName string
	timeout  time.Duration
}

func NewSendGridTransport(cfg config.MailConfig) *SendGridTransport {
	return &SendGridTransport{
		apiKey:   cfg.SendGridAPIKey,
		endpoint: sendGridEndpoint,
		from:     cfg.From,
		fromName: cfg.FromName,
		timeout:  10 * time.Second,
	}
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (t *SendGridTransport) Send(ctx context.Context, msg Message) error {
	req := sgRequest{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: msg.To}}}},
		From:             sgAddress{Email: t.from, Name: t.fromName},
		Subject:          msg.Subject,
		Content:          []sgContent{{Type: "text/html", Value: msg.HTML}},
	}

	var (
		code int
		body string
	)
	err := gout.POST(t.endpoint).
		WithContext(ctx).
		SetTimeout(t.timeout).
		SetHeader(gout.H{"Authorization": "Bearer " + t.apiKey}).
		SetJSON(req).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrap(err, "sendgrid request")
	}
	//成功時は202
	if code != http.StatusAccepted && code != http.StatusOK {
		return errors.Errorf("sendgrid status %d: %s", code, body)
	}
	return nil
}
