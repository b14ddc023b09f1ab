package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"docproc/internal/domain"
	"docproc/internal/port"
)

type conversionRepo struct {
	db *sqlx.DB
}

// NewConversionRepo creates a ConversionHistoryRepository over db.
func NewConversionRepo(db *sqlx.DB) port.ConversionHistoryRepository {
	return &conversionRepo{db: db}
}

func (r *conversionRepo) Create(ctx context.Context, rec *domain.ConversionRecord) error {
	query := `INSERT INTO conversions
		(id, request_id, principal, operation, file_name, mime_type, size_bytes,
		 output_format, chunk_strategy, ocr_enabled, status, message, total_chunks,
		 page_count, processing_time, created_at)
		VALUES (:id, :request_id, :principal, :operation, :file_name, :mime_type, :size_bytes,
		 :output_format, :chunk_strategy, :ocr_enabled, :status, :message, :total_chunks,
		 :page_count, :processing_time, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("conversionRepo.Create: %w", err)
	}
	return nil
}

func (r *conversionRepo) List(ctx context.Context, offset, limit int) ([]domain.ConversionRecord, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM conversions"); err != nil {
		return nil, 0, fmt.Errorf("conversionRepo.List count: %w", err)
	}

	records := []domain.ConversionRecord{}
	err := r.db.SelectContext(ctx, &records, r.db.Rebind(
		`SELECT * FROM conversions ORDER BY created_at DESC, id LIMIT ? OFFSET ?`),
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("conversionRepo.List: %w", err)
	}
	return records, total, nil
}
