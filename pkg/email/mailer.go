package email

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Mailer composes the auth emails and hands them to the sender. BaseURL is
// the public origin links are built against.
type Mailer struct {
	sender  EmailSender
	baseURL string
	appName string
}

func NewMailer(sender EmailSender, baseURL, appName string) *Mailer {
	return &Mailer{
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		appName: appName,
	}
}

var linkTmpl = template.Must(template.New("link").Parse(`<html><body>
<p>{{.Intro}}</p>
<p><a href="{{.URL}}">{{.Action}}</a></p>
<p>This link expires in {{.Expiry}} and can be used once. If you did not request it, ignore this email.</p>
<p>&mdash; {{.App}}</p>
</body></html>`))

type linkData struct {
	Intro  string
	URL    string
	Action string
	Expiry string
	App    string
}

func (m *Mailer) sendLink(ctx context.Context, to, subject, tag string, data linkData) error {
	data.App = m.appName
	var body strings.Builder
	if err := linkTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   to,
		Subject:  subject,
		BodyHTML: body.String(),
		Tag:      tag,
	})
}

func (m *Mailer) link(path, token string) string {
	return m.baseURL + path + "?token=" + url.QueryEscape(token)
}

// SendVerification emails the address-confirmation link.
func (m *Mailer) SendVerification(ctx context.Context, to, token string) error {
	return m.sendLink(ctx, to, "Verify your email", "email-verify", linkData{
		Intro:  "Confirm this address to finish setting up your account.",
		URL:    m.link("/verify-email", token),
		Action: "Verify email",
		Expiry: "24 hours",
	})
}

// SendPasswordReset emails the reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, token string) error {
	return m.sendLink(ctx, to, "Reset your password", "password-reset", linkData{
		Intro:  "Someone asked to reset the password for this account.",
		URL:    m.link("/password-reset/confirm", token),
		Action: "Choose a new password",
		Expiry: "1 hour",
	})
}

// SendMagicLink emails the sign-in link.
func (m *Mailer) SendMagicLink(ctx context.Context, to, token string) error {
	return m.sendLink(ctx, to, "Your sign-in link", "magic-link", linkData{
		Intro:  "Use this link to sign in. No password needed.",
		URL:    m.link("/magic-link/verify", token),
		Action: "Sign in",
		Expiry: "15 minutes",
	})
}
