// Package email delivers transactional mail. Auth flows hand it a
// recipient and a link; everything past that (provider, tracking,
// dev-mode capture) stays behind EmailSender.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
)

var (
	ErrSendFailed    = errors.New("failed to send email")
	ErrInvalidParams = errors.New("invalid email parameters")
	ErrInvalidConfig = errors.New("invalid email configuration")
)

// EmailSender sends one transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams is a single outbound message.
type SendEmailParams struct {
	SendTo   string
	Subject  string
	BodyHTML string
	Tag      string
}

// Validate checks the message is deliverable before it reaches a provider.
func (p SendEmailParams) Validate() error {
	if _, err := mail.ParseAddress(p.SendTo); err != nil {
		return fmt.Errorf("%w: recipient: %w", ErrInvalidParams, err)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidParams)
	}
	if p.BodyHTML == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidParams)
	}
	return nil
}

// Config holds delivery configuration. The Postmark tokens may be empty in
// development where the logging sender is used instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@coverly.app"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@coverly.app"`
}
