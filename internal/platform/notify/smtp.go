// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPNotifier delivers reset codes over SMTP with PLAIN auth (STARTTLS is
// negotiated by the smtp package when the server offers it).
//
// The wire protocol is handled by net/smtp directly: the transport is a
// single, fixed-template transactional mail, and everything above it hides
// behind the [Notifier] interface.
type SMTPNotifier struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// SMTPConfig carries the transport settings for [NewSMTPNotifier].
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// NewSMTPNotifier constructs an [SMTPNotifier] from transport settings.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

/*
SendResetCode delivers the password-reset verification mail.

Parameters:
  - ctx: context.Context (deadline observed between dial attempts)
  - recipient: string
  - code: int

Returns:
  - error: DNS, dial, auth, or protocol failures
*/
func (notifier *SMTPNotifier) SendResetCode(ctx context.Context, recipient string, code int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := notifier.buildMessage(recipient, code)
	addr := notifier.host + ":" + notifier.port
	auth := smtp.PlainAuth("", notifier.username, notifier.password, notifier.host)

	if err := smtp.SendMail(addr, auth, notifier.from, []string{recipient}, message); err != nil {
		return fmt.Errorf("notify: smtp delivery to %s failed: %w", notifier.host, err)
	}

	return nil
}

// buildMessage renders the fixed reset-code mail template.
//
// The body is the product's customer-facing template and is intentionally
// kept in Spanish.
func (notifier *SMTPNotifier) buildMessage(recipient string, code int) []byte {
	var builder strings.Builder

	builder.WriteString("From: " + notifier.from + "\r\n")
	builder.WriteString("To: " + recipient + "\r\n")
	builder.WriteString("Subject: BonAppetit | Restablece tu contrasena\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString("<p>¡Hola! ¿Cómo estás?</p>\r\n")
	builder.WriteString("<p>Recibimos una solicitud para restablecer tu contraseña. " +
		"Ingresá el siguiente código en la aplicación para continuar:</p>\r\n")
	builder.WriteString(fmt.Sprintf("<h2 style=\"letter-spacing: 2px;\">%d</h2>\r\n", code))
	builder.WriteString("<p>Por tu seguridad, no compartas este código con nadie.</p>\r\n")
	builder.WriteString("<p>Gracias por confiar en <b>BonAppetit</b>.</p>\r\n")

	return []byte(builder.String())
}
