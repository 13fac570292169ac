package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"excellerator/internal/domain"
	"excellerator/internal/service"
	"excellerator/mocks"
)

func TestConversionService_List(t *testing.T) {
	repo := new(mocks.MockConversionRepo)
	svc := service.NewConversionService(repo)
	items := []domain.Conversion{{FileName: "receipt.png", OwnerEmail: owner}}
	repo.On("ListByOwner", mock.Anything, owner, 0, 20).Return(items, 1, nil)

	got, total, err := svc.List(context.Background(), owner, -5, 500)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, items, got)
	repo.AssertExpectations(t)
}

func TestConversionService_List_EmptyIsNotNil(t *testing.T) {
	repo := new(mocks.MockConversionRepo)
	svc := service.NewConversionService(repo)
	repo.On("ListByOwner", mock.Anything, owner, 0, 10).Return(nil, 0, nil)

	got, _, err := svc.List(context.Background(), owner, 0, 10)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestConversionService_List_RepoError(t *testing.T) {
	repo := new(mocks.MockConversionRepo)
	svc := service.NewConversionService(repo)
	repo.On("ListByOwner", mock.Anything, owner, 0, 10).Return(nil, 0, errors.New("db down"))

	_, _, err := svc.List(context.Background(), owner, 0, 10)

	assert.Error(t, err)
}
