package otp

import (
	"context"

	"github.com/vavipcommerce/vavip-backend/pkg/logger"
)

// LogSender writes codes to the log instead of an SMS gateway. Used in
// development environments where no provider is wired up.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender builds a sender that logs codes.
func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) SendCode(ctx context.Context, phone, code string) error {
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"phone": phone,
			"code":  code,
		}), "otp.code_issued")
	}
	return nil
}
