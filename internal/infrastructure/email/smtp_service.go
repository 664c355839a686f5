package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

type EmailService interface {
	SendEmail(ctx context.Context, req EmailRequest) error
}

type smtpEmailService struct {
	smtpAddr string
	smtpFrom string
}

// NewDevEmailService sends unauthenticated plain text mail, e.g. to mailhog
func NewDevEmailService(smtpHost, smtpPort, from string) EmailService {
	return &smtpEmailService{
		smtpAddr: smtpHost + ":" + smtpPort,
		smtpFrom: from,
	}
}

func (s *smtpEmailService) SendEmail(ctx context.Context, req EmailRequest) error {
	if len(req.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		s.smtpFrom, strings.Join(req.To, ", "), req.Subject, req.Body))

	if err := smtp.SendMail(s.smtpAddr, nil, s.smtpFrom, req.To, msg); err != nil {
		return fmt.Errorf("send email via %s: %w", s.smtpAddr, err)
	}
	return nil
}

// logEmailService writes mail to the log instead of sending it
type logEmailService struct{}

func NewLogEmailService() EmailService {
	return logEmailService{}
}

func (logEmailService) SendEmail(_ context.Context, req EmailRequest) error {
	log.Info().
		Strs("to", req.To).
		Str("subject", req.Subject).
		Int("body_len", len(req.Body)).
		Msg("[MOCK] email delivered")
	return nil
}
