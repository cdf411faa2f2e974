package mailer

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"reqclassify/internal/config"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var ErrMailDisabled = errors.New("mail transport is not configured")

// Mailer delivers contact-form messages to the configured inbox over
// SMTP. Failures are returned for the handler to report as a notice;
// nothing here is fatal and nothing is retried.
type Mailer struct {
	config *config.Config
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{config: cfg}
}

func (m *Mailer) Send(fromName, fromEmail, body string) error {
	if !m.config.MailEnabled() {
		return ErrMailDisabled
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.MailUsername)
	msg.SetHeader("Reply-To", fromEmail)
	msg.SetHeader("To", m.config.MailUsername)
	msg.SetHeader("Subject", fmt.Sprintf("New message from %s", fromName))
	msg.SetBody("text/plain", fmt.Sprintf("From: %s <%s>\n\n%s", fromName, fromEmail, body))

	dialer := gomail.NewDialer(m.config.MailHost, m.config.MailPort, m.config.MailUsername, m.config.MailPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		logger.Error().Err(err).Msg("Failed to send contact mail")
		return err
	}
	return nil
}
