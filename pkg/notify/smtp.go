package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/deadline-tracker/deadline-tracker/pkg/config"
)

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends email through an SMTP relay.
type SMTPMailer struct {
	addr     string
	host     string
	user     string
	pass     string
	from     string
	sendMail sendMailFunc
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	host := config.ResolveHostForDocker(cfg.Host)
	return &SMTPMailer{
		addr:     net.JoinHostPort(host, strconv.Itoa(cfg.Port)),
		host:     host,
		user:     cfg.User,
		pass:     cfg.Pass,
		from:     cfg.Sender(),
		sendMail: smtp.SendMail,
	}
}

// Send delivers the message. net/smtp has no context support, so ctx is only
// checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := m.sendMail(m.addr, auth, m.from, []string{to}, buildMessage(m.from, to, subject, body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// sanitizeHeader strips line breaks so values cannot inject headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
