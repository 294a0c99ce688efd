// Package notify delivers reminder messages over push and email.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/logging"
)

// Message is the content of a push notification.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Pusher sends a push notification to one device token.
type Pusher interface {
	Push(ctx context.Context, deviceToken string, msg Message) error
}

// Mailer sends a plain-text email to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogPusher logs pushes instead of sending them. Used when Firebase is not configured.
type LogPusher struct {
	logger *zap.Logger
}

var _ Pusher = (*LogPusher)(nil)

func NewLogPusher(logger *zap.Logger) *LogPusher {
	return &LogPusher{logger: logger.Named("push")}
}

func (p *LogPusher) Push(_ context.Context, deviceToken string, msg Message) error {
	p.logger.Info("Push delivery disabled, logging message",
		zap.String("title", msg.Title),
		zap.String("token", logging.RedactToken(deviceToken)))
	return nil
}

// LogMailer logs emails instead of sending them. Used when SMTP is not configured.
type LogMailer struct {
	logger *zap.Logger
}

var _ Mailer = (*LogMailer)(nil)

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mail")}
}

func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("Email delivery disabled, logging message",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
