package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPNotifier emails alerts through a plain SMTP relay with STARTTLS.
type SMTPNotifier struct {
	Host     string
	Port     int
	From     string
	To       string
	Password string
}

// NewSMTP creates an SMTP notifier.
func NewSMTP(host string, port int, from, to, password string) *SMTPNotifier {
	return &SMTPNotifier{Host: host, Port: port, From: from, To: to, Password: password}
}

func (n *SMTPNotifier) Send(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.Host, n.Port)
	auth := smtp.PlainAuth("", n.From, n.Password, n.Host)

	msg := strings.Join([]string{
		"From: " + n.From,
		"To: " + n.To,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, n.From, []string{n.To}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
