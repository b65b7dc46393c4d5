package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport は送信せずログに出す（開発用）
type LogTransport struct{}

func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

func (t *LogTransport) Send(_ context.Context, msg Message) error {
	zap.L().Info("mail (log transport)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	zap.L().Debug("mail body", zap.String("to", msg.To), zap.String("html", msg.HTML))
	return nil
}
