package email

import (
	"context"
	"log/slog"
)

// LogSender is the development sender: the message is logged instead of
// delivered, so reset and magic links can be clicked straight from the
// server output.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "email captured (dev mode)",
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
		slog.String("body", params.BodyHTML),
	)
	return nil
}
