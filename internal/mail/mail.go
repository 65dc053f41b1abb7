// Package mail sends transactional email over SMTP.
package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/krishnaqnq/todo/pkg/logger"
)

// SMTPMailer delivers mail through a plain SMTP endpoint.
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPMailer returns a mailer for the given SMTP account.
func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	if from == "" {
		from = user
	}
	return &SMTPMailer{Host: host, Port: port, User: user, Pass: pass, From: from}
}

// SendPasswordReset mails the reset link to the given address. Delivery is
// synchronous: an error here means the message was not handed off.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	body := fmt.Sprintf(`<div style="max-width: 600px; margin: 0 auto; font-family: Arial, sans-serif;">
  <h2>Password Reset Request</h2>
  <p>You requested a password reset for your Todo App account.</p>
  <p>Click the link below to reset your password:</p>
  <p><a href="%s">Reset Password</a></p>
  <p>If the link doesn't work, copy and paste this URL into your browser:</p>
  <p>%s</p>
  <p>This link will expire in 1 hour.</p>
  <p>If you didn't request this password reset, please ignore this email.</p>
</div>`, resetURL, resetURL)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset Request - Todo App")
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.Host, m.Port, m.User, m.Pass)
	if err := dialer.DialAndSend(msg); err != nil {
		return err
	}
	logger.Debug(ctx, "Password reset email delivered", "to", to)
	return nil
}
