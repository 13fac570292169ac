package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"excellerator/internal/coerce"
	"excellerator/internal/document"
	"excellerator/internal/domain"
	"excellerator/internal/gateway"
	"excellerator/internal/port"
	"excellerator/internal/prompt"
)

// ExtractInput is one document to turn into rows.
type ExtractInput struct {
	FileName string
	Data     []byte
	Hint     string
	Headers  []string
}

// ExtractOutput holds the rows read from a document.
type ExtractOutput struct {
	Rows     []domain.Row
	Columns  []string
	Model    string
	Document *document.Info
}

// ExtractionService turns a document into tabular rows with one model call.
type ExtractionService interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}

type extractionService struct {
	inspector *document.Inspector
	model     port.ModelGateway
	logger    *slog.Logger
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(inspector *document.Inspector, model port.ModelGateway, logger *slog.Logger) ExtractionService {
	return &extractionService{
		inspector: inspector,
		model:     model,
		logger:    logger,
	}
}

func (s *extractionService) Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error) {
	info, err := s.inspector.Inspect(input.FileName, input.Data)
	if err != nil {
		return nil, err
	}

	out, err := s.model.Generate(ctx, port.GenerateInput{
		Prompt: prompt.BuildExtractionPrompt(input.Hint, input.Headers),
		Attachment: &port.Attachment{
			Data:        input.Data,
			ContentType: info.ContentType,
			FileName:    info.FileName,
		},
	})
	if err != nil {
		return nil, modelError("extraction.Extract", err)
	}

	rows, err := coerce.ExtractionFromText(out.Text)
	if err != nil {
		s.logger.WarnContext(ctx, "extraction.Extract: unusable model output",
			"file", info.FileName, "model", out.Model, "error", err)
		return nil, err
	}
	rows = domain.ConformToHeaders(rows, input.Headers)

	s.logger.InfoContext(ctx, "extraction.Extract: completed",
		"file", info.FileName, "type", info.FileType, "pages", info.PageCount,
		"model", out.Model, "rows", len(rows))

	return &ExtractOutput{
		Rows:     rows,
		Columns:  domain.ColumnsOf(rows),
		Model:    out.Model,
		Document: info,
	}, nil
}

// modelError tags gateway failures as ErrModelUnavailable. Rate limits and
// cancellations keep their own identity.
func modelError(op string, err error) error {
	var rlErr *gateway.RateLimitError
	if errors.As(err, &rlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrModelUnavailable, err)
}
