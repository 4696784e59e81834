package mailer

import (
	"fmt"
	"net/smtp"
	"time"
)

// Sender delivers a plain-text message and reports success or failure.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)
	msg := []byte(
		"From: " + m.From + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body + "\r\n")

	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	return smtp.SendMail(addr, auth, m.From, []string{to}, msg)
}

// OTPMessage builds the subject and body for a passcode mail. The code is
// the only place the plaintext passcode ever travels.
func OTPMessage(code string, ttl time.Duration) (subject, body string) {
	subject = "Your login verification code"
	body = fmt.Sprintf("Your one-time passcode is: %s\n\nIt expires in %d minutes. If you did not request it, you can ignore this email.", code, int(ttl.Minutes()))
	return subject, body
}
