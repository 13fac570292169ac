package service

import (
	"context"
	"fmt"

	"excellerator/internal/domain"
	"excellerator/internal/port"
)

// ConversionService lists the extraction history of a user.
type ConversionService interface {
	List(ctx context.Context, ownerEmail string, offset, limit int) ([]domain.Conversion, int, error)
}

type conversionService struct {
	repo port.ConversionRepository
}

// NewConversionService creates a new ConversionService.
func NewConversionService(repo port.ConversionRepository) ConversionService {
	return &conversionService{repo: repo}
}

func (s *conversionService) List(ctx context.Context, ownerEmail string, offset, limit int) ([]domain.Conversion, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, total, err := s.repo.ListByOwner(ctx, ownerEmail, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("conversion.List: %w", err)
	}
	if items == nil {
		items = []domain.Conversion{}
	}
	return items, total, nil
}
