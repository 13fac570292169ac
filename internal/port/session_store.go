package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"excellerator/internal/domain"
)

// SessionStore keeps live sessions. Update applies fn to the stored session
// atomically; a non-nil error from fn discards the change.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	Update(ctx context.Context, id uuid.UUID, fn func(s *domain.Session) error) (*domain.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	EvictIdle(ctx context.Context, idleSince time.Time) (int, error)
}
