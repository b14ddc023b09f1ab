package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docproc/internal/domain"
	"docproc/internal/logging"
	"docproc/internal/port"
)

// HistoryService records orchestrated requests. Recording never fails the
// request; errors are logged.
type HistoryService interface {
	Record(ctx context.Context, rec *domain.ConversionRecord)
	List(ctx context.Context, offset, limit int) ([]domain.ConversionRecord, int, error)
	Enabled() bool
}

type historyService struct {
	repo port.ConversionHistoryRepository
	now  func() time.Time
}

// NewHistoryService returns a recorder writing to repo, or a no-op recorder
// when repo is nil.
func NewHistoryService(repo port.ConversionHistoryRepository) HistoryService {
	if repo == nil {
		return noopHistory{}
	}
	return &historyService{repo: repo, now: time.Now}
}

func (s *historyService) Record(ctx context.Context, rec *domain.ConversionRecord) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	// The request may already be canceled; the row is still worth keeping.
	if err := s.repo.Create(context.WithoutCancel(ctx), rec); err != nil {
		logging.FromContext(ctx).Error("failed to record conversion history",
			"error", err, "operation", rec.Operation, "status", rec.Status)
	}
}

func (s *historyService) List(ctx context.Context, offset, limit int) ([]domain.ConversionRecord, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *historyService) Enabled() bool { return true }

type noopHistory struct{}

func (noopHistory) Record(context.Context, *domain.ConversionRecord) {}

func (noopHistory) List(context.Context, int, int) ([]domain.ConversionRecord, int, error) {
	return []domain.ConversionRecord{}, 0, nil
}

func (noopHistory) Enabled() bool { return false }
