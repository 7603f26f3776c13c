package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/pkg/mailer"
)

// CertificateEmail is the notification sent after a certificate is issued.
type CertificateEmail struct {
	To                string
	RecipientName     string
	CourseTitle       string
	CertificateNumber string
	CEUHours          float64
	IssuedAt          time.Time
	Reissued          bool
}

// CertificateMailer delivers certificate notifications.
type CertificateMailer interface {
	SendCertificate(ctx context.Context, email CertificateEmail) error
}

// EmailSender is the transport used by the templated mailer.
type EmailSender interface {
	Send(ctx context.Context, msg mailer.Message) (mailer.Receipt, error)
}

var certificateEmailTemplate = template.Must(template.New("certificate").Parse(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;">
<h2>Congratulations{{if .Name}}, {{.Name}}{{end}}!</h2>
<p>Your certificate for <strong>{{.CourseTitle}}</strong> has been {{if .Reissued}}re-issued{{else}}issued{{end}}.</p>
<p><strong>Certificate Number:</strong> {{.CertificateNumber}}<br>
<strong>CEU Hours:</strong> {{.CEUHours}}<br>
<strong>Issued:</strong> {{.IssuedAt}}</p>
<p>You can view and download your certificate from <a href="{{.AccountURL}}">your account</a>.</p>
</div>`))

type templatedCertificateMailer struct {
	sender     EmailSender
	from       string
	accountURL string
	policy     *bluemonday.Policy
}

// NewTemplatedCertificateMailer renders certificate notifications and hands them to sender.
func NewTemplatedCertificateMailer(sender EmailSender, from, accountURL string) CertificateMailer {
	return &templatedCertificateMailer{
		sender:     sender,
		from:       from,
		accountURL: accountURL,
		policy:     bluemonday.StrictPolicy(),
	}
}

func (m *templatedCertificateMailer) SendCertificate(ctx context.Context, email CertificateEmail) error {
	msg, err := m.render(email)
	if err != nil {
		return err
	}
	_, err = m.sender.Send(ctx, msg)
	return err
}

func (m *templatedCertificateMailer) render(email CertificateEmail) (mailer.Message, error) {
	title := strings.TrimSpace(m.policy.Sanitize(email.CourseTitle))
	data := struct {
		Name              string
		CourseTitle       string
		CertificateNumber string
		CEUHours          string
		IssuedAt          string
		AccountURL        string
		Reissued          bool
	}{
		Name:              strings.TrimSpace(m.policy.Sanitize(email.RecipientName)),
		CourseTitle:       title,
		CertificateNumber: email.CertificateNumber,
		CEUHours:          strconv.FormatFloat(email.CEUHours, 'f', -1, 64),
		IssuedAt:          email.IssuedAt.UTC().Format("January 2, 2006"),
		AccountURL:        m.accountURL,
		Reissued:          email.Reissued,
	}

	var body bytes.Buffer
	if err := certificateEmailTemplate.Execute(&body, data); err != nil {
		return mailer.Message{}, fmt.Errorf("render certificate email: %w", err)
	}

	return mailer.Message{
		From:    m.from,
		To:      []string{email.To},
		Subject: fmt.Sprintf("Your Certificate: %s", title),
		HTML:    body.String(),
	}, nil
}

// LogCertificateMailer logs notifications instead of delivering them.
type LogCertificateMailer struct {
	logger zerolog.Logger
}

// NewLogCertificateMailer constructs a logging mailer used when no provider is configured.
func NewLogCertificateMailer(logger zerolog.Logger) *LogCertificateMailer {
	return &LogCertificateMailer{logger: logger.With().Str("component", "certificate_mailer").Logger()}
}

// SendCertificate logs the notification and reports success.
func (l *LogCertificateMailer) SendCertificate(ctx context.Context, email CertificateEmail) error {
	l.logger.Info().
		Str("certificate_number", email.CertificateNumber).
		Str("email", maskEmail(email.To)).
		Msg("certificate notification logged")
	return nil
}

func maskEmail(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return "***"
	}
	local := parts[0]
	if len(local) <= 2 {
		local = local[:1] + "***"
	} else {
		local = local[:1] + "***" + local[len(local)-1:]
	}
	return local + "@" + parts[1]
}
