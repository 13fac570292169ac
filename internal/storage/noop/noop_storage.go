package noop

import (
	"context"

	"excellerator/internal/domain"
	"excellerator/internal/port"
)

type noopStorage struct{}

// NewNoopStorage creates an ObjectStorage used when no provider is
// configured. Every call fails with domain.ErrStorageDisabled.
func NewNoopStorage() port.ObjectStorage {
	return noopStorage{}
}

func (noopStorage) Upload(context.Context, port.UploadInput) (*port.UploadOutput, error) {
	return nil, domain.ErrStorageDisabled
}

func (noopStorage) Delete(context.Context, string) error {
	return domain.ErrStorageDisabled
}

func (noopStorage) GetPresignedURL(context.Context, string, int64) (string, error) {
	return "", domain.ErrStorageDisabled
}
