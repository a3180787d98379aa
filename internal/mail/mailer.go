package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Sender dispatches transactional mail. The auth service depends on this
// interface so tests can substitute a fake.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, name, resetLink string) error
}

type smtpSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender creates a mail sender over SMTP with LOGIN auth. Credentials
// are process-wide configuration loaded at startup.
func NewSMTPSender(host string, port int, username, password, from string) (Sender, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &smtpSender{client: client, from: from}, nil
}

// SendPasswordReset sends the reset-link email for the forgot-password flow.
func (s *smtpSender) SendPasswordReset(ctx context.Context, to, name, resetLink string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}

	msg.Subject("Password reset")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your account. "+
			"Open the link below to choose a new password. "+
			"The link expires in 30 minutes.\n\n%s\n\n"+
			"If you did not request this, you can ignore this email.\n",
		name, resetLink,
	))
	msg.AddAlternativeString(gomail.TypeTextHTML, fmt.Sprintf(
		`<p>Hi %s,</p><p>A password reset was requested for your account. `+
			`<a href="%s">Choose a new password</a>. The link expires in 30 minutes.</p>`+
			`<p>If you did not request this, you can ignore this email.</p>`,
		name, resetLink,
	))

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}
