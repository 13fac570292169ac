package noop

import (
	"context"
	"log/slog"

	"excellerator/internal/port"
)

type noopSender struct {
	logger *slog.Logger
}

// NewNoopSender creates a no-op ExportMailer that logs the download link.
func NewNoopSender(logger *slog.Logger) port.ExportMailer {
	return &noopSender{logger: logger}
}

func (s *noopSender) SendExportLink(ctx context.Context, toEmail, fileName, downloadURL string) error {
	s.logger.InfoContext(ctx, "[NOOP EMAIL] export link", "to", toEmail, "file", fileName, "url", downloadURL)
	return nil
}
