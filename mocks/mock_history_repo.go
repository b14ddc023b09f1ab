package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docproc/internal/domain"
)

// MockConversionHistoryRepo is a mock implementation of port.ConversionHistoryRepository.
type MockConversionHistoryRepo struct {
	mock.Mock
}

func (m *MockConversionHistoryRepo) Create(ctx context.Context, rec *domain.ConversionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockConversionHistoryRepo) List(ctx context.Context, offset, limit int) ([]domain.ConversionRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ConversionRecord), args.Int(1), args.Error(2)
}
