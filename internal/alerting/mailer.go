package alerting

import (
	"fmt"
	"log"
	"net/smtp"
)

// SMTPMailer sends alert email through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	From string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.Addr == "" {
		return fmt.Errorf("smtp relay not configured")
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.From, to, subject, body)
	return smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg))
}

// LogMailer writes alerts to the process log instead of sending them.
// Used in development when no SMTP relay is available.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("alert (dry run) to=%s subject=%q", to, subject)
	return nil
}
