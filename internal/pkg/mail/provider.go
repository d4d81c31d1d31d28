package mail

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
)

const codeDigits = 6

type Sender interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogSender writes codes to the log instead of delivering them. The code
// itself is only visible at debug level.
type LogSender struct {
	From   string
	logger *slog.Logger
}

func NewLogSender(from string, logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{From: from, logger: logger}
}

func (s *LogSender) SendCode(ctx context.Context, email, code string) error {
	s.logger.InfoContext(ctx, "verification code issued", "from", s.From, "to", email)
	s.logger.DebugContext(ctx, "verification code", "to", email, "code", code)
	return nil
}

func GenerateVerificationCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
