package mail

import (
	"fmt"
	"net/smtp"
)

// SMTPMailer delivers account notifications through a plain SMTP relay.
// It satisfies the core's Notifier interface.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *SMTPMailer) Notify(recipient, subject, body string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.from, recipient, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{recipient}, []byte(msg))
}

// LogMailer is the no-relay fallback: it hands the notification to the
// provided sink instead of sending it. Used in development and tests.
type LogMailer struct {
	Sink func(recipient, subject, body string)
}

func (m *LogMailer) Notify(recipient, subject, body string) error {
	if m.Sink != nil {
		m.Sink(recipient, subject, body)
	}
	return nil
}
