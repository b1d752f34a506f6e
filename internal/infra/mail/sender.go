package mail

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/lead-intake/internal/entity"
)

var ErrNotConfigured = errors.New("smtp não configurado")

// SMTPSender é o fallback de email quando o Microsoft Graph não está configurado.
type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	deliver func(...*gomail.Message) error
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	s := &SMTPSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
	s.deliver = gomail.NewDialer(host, port, user, password).DialAndSend
	return s
}

func (s *SMTPSender) Configured() bool {
	return s != nil && s.Host != "" && s.From != ""
}

// Send só olha o ctx no início; o gomail não suporta context.
func (s *SMTPSender) Send(ctx context.Context, msg entity.EmailMessage) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.deliver(s.buildMessage(msg)); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	zap.S().Infof("📧 SMTP: Email \"%s\" enviado para %s", msg.Subject, msg.To)
	return nil
}

func (s *SMTPSender) buildMessage(msg entity.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	for _, a := range msg.Attachments {
		content := a.Content
		m.Attach(a.FileName,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}
	return m
}
