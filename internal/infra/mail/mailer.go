package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Mailer sends magic-link emails over SMTP. With no real host configured
// it logs the link instead, which is the expected dev-mode behavior.
type Mailer struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	TTLText  string
	log      *zap.SugaredLogger
}

func New(host string, port int, user, password, from, ttlText string, log *zap.SugaredLogger) *Mailer {
	return &Mailer{Host: host, Port: port, User: user, Password: password, From: from, TTLText: ttlText, log: log}
}

func (m *Mailer) SendMagicLink(ctx context.Context, to, name, link string) error {
	subject := "Your Inspection Portal Login Link"
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\n"+
			"You requested access to your Inspection Portal dashboard.\r\n\r\n"+
			"Click this link to log in securely:\r\n%s\r\n\r\n"+
			"This link will expire in %s for security reasons.\r\n\r\n"+
			"If you didn't request this login, please ignore this email.\r\n",
		name, link, m.TTLText)

	if m.Host == "" || m.Host == "localhost" {
		m.log.Infow("magic link email (dev mode)", "to", to, "link", link)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	var auth smtp.Auth
	if m.User != "" && m.Password != "" {
		auth = smtp.PlainAuth("", m.User, m.Password, m.Host)
	}
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
