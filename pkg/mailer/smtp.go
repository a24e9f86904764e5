package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
)

const signupTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>Welcome, {{.Name}}!</h2>
	<p>Your account has been created. You can now sign in and submit reports.</p>
</div>`

const reportApprovedTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>Report approved</h2>
	<p>Hi {{.Name}}, your report "{{.Title}}" has been approved.</p>
</div>`

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type smtpMailer struct {
	cfg       SMTPConfig
	templates *template.Template
}

// NewSMTPMailer builds a Mailer that sends HTML mail over plain-auth SMTP.
func NewSMTPMailer(cfg SMTPConfig) (Mailer, error) {
	t := template.New("mail")
	var err error
	if t, err = t.New("signup").Parse(signupTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse signup template: %w", err)
	}
	if t, err = t.New("report-approved").Parse(reportApprovedTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse report-approved template: %w", err)
	}

	return &smtpMailer{cfg: cfg, templates: t}, nil
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, templateName string, data any) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("failed to render mail template %s: %w", templateName, err)
	}

	var message bytes.Buffer
	fmt.Fprintf(&message, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&message, "To: %s\r\n", to)
	fmt.Fprintf(&message, "Subject: %s\r\n", subject)
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	message.WriteString("\r\n")
	message.Write(body.Bytes())

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := m.cfg.Host + ":" + m.cfg.Port

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, message.Bytes())
}
