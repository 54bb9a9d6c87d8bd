// Package mailer delivers password-reset links.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/wneessen/go-mail"

	"juntas/internal/platform/config"
)

const resetSubject = "Restablecimiento de contraseña - Juntas de Acción Comunal"

var resetBody = template.Must(template.New("reset").Parse(`Hola {{.Nombre}},

Recibimos una solicitud para restablecer su contraseña en el sistema de
Juntas de Acción Comunal de Boyacá.

Para continuar abra el siguiente enlace:

{{.Link}}

Si usted no hizo esta solicitud puede ignorar este mensaje.
`))

// Mailer sends transactional messages.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, nombre, link string) error
}

func renderReset(nombre, link string) (string, error) {
	var buf bytes.Buffer
	if err := resetBody.Execute(&buf, struct{ Nombre, Link string }{nombre, link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SMTP sends through the configured relay with opportunistic TLS.
type SMTP struct {
	cfg config.MailConfig
}

func NewSMTP(cfg config.MailConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

func (m *SMTP) SendPasswordReset(ctx context.Context, to, nombre, link string) error {
	body, err := renderReset(nombre, link)
	if err != nil {
		return fmt.Errorf("render reset mail: %w", err)
	}
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(resetSubject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// Log writes the link to the log instead of sending it. Development only.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (m *Log) SendPasswordReset(ctx context.Context, to, _, link string) error {
	m.logger.InfoContext(ctx, "password reset link (mail disabled)", "to", to, "link", link)
	return nil
}

// New picks SMTP when a host is configured.
func New(cfg config.MailConfig, logger *slog.Logger) Mailer {
	if cfg.Host == "" {
		return NewLog(logger)
	}
	return NewSMTP(cfg)
}
