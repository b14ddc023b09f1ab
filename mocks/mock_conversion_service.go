package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docproc/internal/domain"
	"docproc/internal/service"
)

// MockConversionService is a mock implementation of service.ConversionService.
type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) Convert(ctx context.Context, input service.ConvertInput) (domain.Result, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Result), args.Error(1)
}

func (m *MockConversionService) ConvertAndChunk(ctx context.Context, input service.ConvertAndChunkInput) (domain.Result, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.Result), args.Error(1)
}
