package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"excellerator/internal/coerce"
	"excellerator/internal/domain"
	"excellerator/internal/port"
	"excellerator/internal/prompt"
)

// EditInput is one natural-language instruction against a dataset.
type EditInput struct {
	Message string
	Rows    []domain.Row
	History []domain.ChatMessage
}

// EditOutput is the coerced model reply and the model that produced it.
type EditOutput struct {
	Reply coerce.ChatReply
	Model string
}

// EditService answers questions about a dataset or rewrites it.
type EditService interface {
	Edit(ctx context.Context, input EditInput) (*EditOutput, error)
}

type editService struct {
	model  port.ModelGateway
	logger *slog.Logger
}

// NewEditService creates a new EditService.
func NewEditService(model port.ModelGateway, logger *slog.Logger) EditService {
	return &editService{model: model, logger: logger}
}

// Edit sends the full dataset with every request. A malformed reply is not
// an error: it comes back as plain text with no table change.
func (s *editService) Edit(ctx context.Context, input EditInput) (*EditOutput, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, domain.ErrEmptyInstruction
	}

	text, err := prompt.BuildEditPrompt(input.Rows, input.Message, input.History)
	if err != nil {
		return nil, fmt.Errorf("edit.Edit: %w", err)
	}
	out, err := s.model.Generate(ctx, port.GenerateInput{Prompt: text})
	if err != nil {
		return nil, modelError("edit.Edit", err)
	}

	reply := coerce.ChatReplyFromText(out.Text)
	if reply.Degraded {
		s.logger.WarnContext(ctx, "edit.Edit: model reply was not JSON, returning it as text", "model", out.Model)
	}
	s.logger.DebugContext(ctx, "edit.Edit: completed",
		"model", out.Model, "rows_in", len(input.Rows), "updated", reply.HasUpdate)

	return &EditOutput{Reply: reply, Model: out.Model}, nil
}
