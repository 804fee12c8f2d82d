// Package services реализует отправку писем: уведомлений об одобренных
// сигналах из очереди и кодов подтверждения при регистрации и сбросе пароля.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shadowhowl/signal-platform/internal/lib/sl"
	"github.com/shadowhowl/signal-platform/internal/lib/smtp"
	"github.com/shadowhowl/signal-platform/internal/models"
)

// Transport устанавливает соединение с SMTP сервером.
type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// SenderService отправляет письма через SMTP транспорт.
type SenderService struct {
	transport Transport
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport Transport, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// HandleSignalAlert обрабатывает сообщение очереди уведомлений:
// разбирает SignalAlert и отправляет получателю письмо с параметрами сигнала.
func (s *SenderService) HandleSignalAlert(body []byte) error {
	var alert models.SignalAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		s.log.Error("failed to unmarshal alert", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := fmt.Sprintf("NEW SIGNAL: %s (%s)", alert.Pair, alert.Direction)
	bodyText := fmt.Sprintf(`Hello, %s!

A new trading signal has been approved:

Pair: %s
Direction: %s
Entry Price: %g
Stop Loss: %g
Take Profit: %g

Check the dashboard for more details.`,
		alert.Username, alert.Pair, alert.Direction,
		alert.EntryPrice, alert.StopLoss, alert.TakeProfit)

	return s.sendEmail([]string{alert.Email}, subject, bodyText)
}

// SendOneTimeCode отправляет код подтверждения на email.
func (s *SenderService) SendOneTimeCode(email, code string) error {
	subject := "Shadow Howl - Email Verification Code"
	bodyText := fmt.Sprintf(`Your one-time verification code is: %s

This code will expire in 10 minutes.
If you didn't request this, please ignore this email.
Never share your code with anyone.`, code)

	return s.sendEmail([]string{email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
