package port

import (
	"context"

	"docproc/internal/domain"
)

// ConversionHistoryRepository persists one row per orchestrated request.
type ConversionHistoryRepository interface {
	Create(ctx context.Context, rec *domain.ConversionRecord) error
	List(ctx context.Context, offset, limit int) ([]domain.ConversionRecord, int, error)
}
