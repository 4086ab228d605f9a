package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"

	"github.com/trailpeak/api/internal/model"
)

// MailConfig holds SMTP settings
type MailConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// Mailer sends templated HTML mail over SMTP
type Mailer struct {
	cfg       MailConfig
	templates *template.Template
}

// NewMailer creates a mailer with the given SMTP settings
func NewMailer(cfg MailConfig) *Mailer {
	return &Mailer{
		cfg:       cfg,
		templates: template.Must(template.New("mail").Parse(mailTemplates)),
	}
}

type mailData struct {
	Name string
	URL  string
}

// SendWelcome greets a new user and points them at their profile page
func (m *Mailer) SendWelcome(ctx context.Context, user *model.User, profileURL string) error {
	return m.send(ctx, user.Email, "Welcome to the Trailpeak family!", "welcome",
		mailData{Name: firstName(user.Name), URL: profileURL})
}

// SendPasswordReset mails the reset link. The link is only valid for a
// short window.
func (m *Mailer) SendPasswordReset(ctx context.Context, user *model.User, resetURL string) error {
	return m.send(ctx, user.Email, "Your password reset token (valid for only 10 minutes)", "passwordReset",
		mailData{Name: firstName(user.Name), URL: resetURL})
}

func (m *Mailer) send(ctx context.Context, to, subject, tmpl string, data mailData) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("render mail template: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg.Bytes())
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func firstName(name string) string {
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	return name
}

const mailTemplates = `
{{define "welcome"}}
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Hi {{.Name}},</h2>
  <p>Welcome to Trailpeak, we're glad to have you!</p>
  <p>We're all a big family here, so make sure to upload your user photo
  so we get to know you a bit better.</p>
  <p><a href="{{.URL}}">Upload user photo</a></p>
  <p>If you need any help with booking your next tour, please don't
  hesitate to contact us.</p>
  <p>- The Trailpeak Team</p>
</body>
</html>
{{end}}

{{define "passwordReset"}}
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Hi {{.Name}},</h2>
  <p>Forgot your password? Submit a request with your new password and
  password confirm to:</p>
  <p><a href="{{.URL}}">Reset your password</a></p>
  <p>This link is only valid for the next 10 minutes.</p>
  <p>If you didn't forget your password, please ignore this email.</p>
  <p>- The Trailpeak Team</p>
</body>
</html>
{{end}}
`
