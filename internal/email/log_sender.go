package email

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// logSender escribe los correos en el log en lugar de enviarlos. Solo para desarrollo local.
type logSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) SendVerificationOTP(_ context.Context, toEmail string, code string, expiresAt time.Time) error {
	s.log(toEmail, verificationMessage(code, expiresAt))
	return nil
}

func (s *logSender) SendResetOTP(_ context.Context, toEmail string, code string, expiresAt time.Time) error {
	s.log(toEmail, resetMessage(code, expiresAt))
	return nil
}

func (s *logSender) SendWelcome(_ context.Context, toEmail string, name string) error {
	s.log(toEmail, welcomeMessage(name))
	return nil
}

func (s *logSender) log(to string, m message) {
	s.logger.Info("email not sent (log sender)",
		zap.String("to", to),
		zap.String("subject", m.subject),
		zap.String("body", m.body),
	)
}
