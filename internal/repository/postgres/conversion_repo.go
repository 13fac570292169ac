package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"excellerator/internal/domain"
	"excellerator/internal/port"
)

type conversionRepo struct {
	db *sqlx.DB
}

// NewConversionRepo creates a new PostgreSQL-backed ConversionRepository.
func NewConversionRepo(db *sqlx.DB) port.ConversionRepository {
	return &conversionRepo{db: db}
}

func (r *conversionRepo) Create(ctx context.Context, c *domain.Conversion) error {
	c.CreatedAt = time.Now().UTC()

	query := `INSERT INTO conversions
		(id, owner_email, session_id, file_name, content_type, file_size, page_count,
		 model, row_count, column_count, status, error_message, archive_key, created_at)
		VALUES (:id, :owner_email, :session_id, :file_name, :content_type, :file_size, :page_count,
		 :model, :row_count, :column_count, :status, :error_message, :archive_key, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("conversionRepo.Create: %w", err)
	}
	return nil
}

func (r *conversionRepo) ListByOwner(ctx context.Context, ownerEmail string, offset, limit int) ([]domain.Conversion, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM conversions WHERE owner_email = $1", ownerEmail)
	if err != nil {
		return nil, 0, fmt.Errorf("conversionRepo.ListByOwner count: %w", err)
	}

	var items []domain.Conversion
	err = r.db.SelectContext(ctx, &items,
		`SELECT * FROM conversions
		 WHERE owner_email = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		ownerEmail, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("conversionRepo.ListByOwner: %w", err)
	}
	return items, total, nil
}
