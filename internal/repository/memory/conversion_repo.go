package memory

import (
	"context"
	"sync"
	"time"

	"excellerator/internal/domain"
	"excellerator/internal/port"
)

// maxConversionsPerOwner caps the in-process history.
const maxConversionsPerOwner = 200

type conversionRepo struct {
	mu      sync.RWMutex
	byOwner map[string][]domain.Conversion
}

// NewConversionRepo creates an in-process ConversionRepository used when no
// database is configured. The oldest entries are dropped past a fixed cap.
func NewConversionRepo() port.ConversionRepository {
	return &conversionRepo{byOwner: make(map[string][]domain.Conversion)}
}

func (r *conversionRepo) Create(_ context.Context, c *domain.Conversion) error {
	c.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.byOwner[c.OwnerEmail], *c)
	if len(list) > maxConversionsPerOwner {
		list = list[len(list)-maxConversionsPerOwner:]
	}
	r.byOwner[c.OwnerEmail] = list
	return nil
}

func (r *conversionRepo) ListByOwner(_ context.Context, ownerEmail string, offset, limit int) ([]domain.Conversion, int, error) {
	r.mu.RLock()
	stored := r.byOwner[ownerEmail]
	list := make([]domain.Conversion, len(stored))
	for i, c := range stored {
		list[len(stored)-1-i] = c
	}
	r.mu.RUnlock()

	total := len(list)
	if offset >= total {
		return []domain.Conversion{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return list[offset:end], total, nil
}
