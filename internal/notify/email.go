package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPEmailSender отправляет письма через SMTP.
type SMTPEmailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPEmailSender создаёт транспорт писем.
func NewSMTPEmailSender(host string, port int, user, password, from string) *SMTPEmailSender {
	return &SMTPEmailSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

// Send отправляет письмо. Контекст проверяется до сетевого вызова:
// сама SMTP-сессия ограничена таймаутами dialer'а.
func (s *SMTPEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.PlainBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("email: отправка не удалась: %w", err)
	}

	return nil
}
