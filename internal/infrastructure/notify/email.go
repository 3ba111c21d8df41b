package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// EmailNotifier delivers alerts over SMTP. Best-effort: the caller logs and
// ignores failures.
type EmailNotifier struct {
	host   string
	port   int
	user   string
	pass   string
	to     string
	logger *zap.Logger
}

func NewEmailNotifier(host string, port int, user, pass, to string, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		host:   host,
		port:   port,
		user:   user,
		pass:   pass,
		to:     to,
		logger: logger,
	}
}

func (n *EmailNotifier) Notify(subject, body string) error {
	msg := strings.Join([]string{
		"From: " + n.user,
		"To: " + n.to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.user, n.pass, n.host)
	if err := smtp.SendMail(addr, auth, n.user, []string{n.to}, []byte(msg)); err != nil {
		n.logger.Warn("Failed to send email", zap.String("subject", subject), zap.Error(err))
		return err
	}
	return nil
}

// LogNotifier stands in when no SMTP target is configured: alerts land in
// the log instead of a mailbox.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(subject, body string) error {
	n.logger.Info("Notification", zap.String("subject", subject), zap.String("body", body))
	return nil
}
