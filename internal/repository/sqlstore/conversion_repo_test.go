package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/port"
	"docproc/internal/repository/sqlstore"
)

func newRepo(t *testing.T) port.ConversionHistoryRepository {
	t.Helper()
	cfg := &config.HistoryConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "history.db")}

	require.NoError(t, sqlstore.Migrate(cfg))
	// A second run is a no-op.
	require.NoError(t, sqlstore.Migrate(cfg))

	db, err := sqlstore.NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlstore.NewConversionRepo(db)
}

func TestConversionRepo_CreateAndList(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	pages := 3

	first := &domain.ConversionRecord{
		ID:             uuid.New(),
		RequestID:      "req-1",
		Principal:      "100",
		Operation:      domain.OperationConvert,
		FileName:       "a.pdf",
		MIMEType:       "application/pdf",
		SizeBytes:      2048,
		OutputFormat:   "markdown",
		OCREnabled:     true,
		Status:         domain.StatusOK,
		Message:        "Document converted successfully",
		PageCount:      &pages,
		ProcessingTime: 1.25,
		CreatedAt:      base,
	}
	second := &domain.ConversionRecord{
		ID:            uuid.New(),
		RequestID:     "req-2",
		Operation:     domain.OperationConvertAndChunk,
		FileName:      "b.txt",
		ChunkStrategy: "hybrid",
		Status:        domain.StatusProcessing,
		Message:       "Failed to chunk document: boom",
		CreatedAt:     base.Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	recs, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, recs, 2)

	// Newest first.
	assert.Equal(t, second.ID, recs[0].ID)
	assert.Nil(t, recs[0].PageCount)
	assert.Equal(t, domain.OperationConvertAndChunk, recs[0].Operation)
	assert.Equal(t, "hybrid", recs[0].ChunkStrategy)

	got := recs[1]
	assert.Equal(t, first.ID, got.ID)
	assert.True(t, got.OCREnabled)
	require.NotNil(t, got.PageCount)
	assert.Equal(t, 3, *got.PageCount)
	assert.Equal(t, int64(2048), got.SizeBytes)
	assert.InDelta(t, 1.25, got.ProcessingTime, 1e-9)
	assert.WithinDuration(t, base, got.CreatedAt, time.Second)
}

func TestConversionRepo_ListPaginates(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &domain.ConversionRecord{
			ID:        uuid.New(),
			Operation: domain.OperationConvert,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	recs, total, err := repo.List(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, recs, 2)

	recs, _, err = repo.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestMigrationURL(t *testing.T) {
	url, err := sqlstore.MigrationURL(&config.HistoryConfig{Driver: "sqlite", DSN: "file:data/h.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite://data/h.db", url)

	url, err = sqlstore.MigrationURL(&config.HistoryConfig{Driver: "pgx", DSN: "postgres://u:p@db:5432/docproc?sslmode=disable"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/docproc?sslmode=disable", url)

	_, err = sqlstore.MigrationURL(&config.HistoryConfig{Driver: "none"})
	assert.Error(t, err)
}
