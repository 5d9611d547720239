package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

var ErrNoRecipients = errors.New("email has no recipients")

type Service interface {
	SendCustom(ctx context.Context, to []string, subject string, content string) error
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type SMTPService struct {
	from    string
	sender  Sender
	timeout time.Duration
}

func NewSMTPService(cfg Config) *SMTPService {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewService(cfg.From, d, cfg.Timeout)
}

func NewService(from string, sender Sender, timeout time.Duration) *SMTPService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPService{from: from, sender: sender, timeout: timeout}
}

// SendCustom sends a plain-text message and waits for the SMTP exchange,
// ctx cancellation or the configured timeout, whichever comes first.
func (s *SMTPService) SendCustom(ctx context.Context, to []string, subject string, content string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", content)

	done := make(chan error, 1)
	go func() {
		done <- s.sender.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.timeout):
		return fmt.Errorf("failed to send email: %w", context.DeadlineExceeded)
	}
}
