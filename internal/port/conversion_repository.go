package port

import (
	"context"

	"excellerator/internal/domain"
)

// ConversionRepository persists the extraction history.
type ConversionRepository interface {
	Create(ctx context.Context, conversion *domain.Conversion) error
	ListByOwner(ctx context.Context, ownerEmail string, offset, limit int) ([]domain.Conversion, int, error)
}
