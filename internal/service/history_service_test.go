package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/port"
	"docproc/internal/service"
	"docproc/mocks"
)

func TestHistoryService_RecordFillsIdentity(t *testing.T) {
	repo := new(mocks.MockConversionHistoryRepo)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.ConversionRecord) bool {
		return r.ID != uuid.Nil && !r.CreatedAt.IsZero()
	})).Return(nil).Once()

	svc := service.NewHistoryService(repo)
	assert.True(t, svc.Enabled())
	svc.Record(context.Background(), &domain.ConversionRecord{Operation: domain.OperationConvert})
	repo.AssertExpectations(t)
}

func TestHistoryService_RecordSurvivesCanceledContextAndErrors(t *testing.T) {
	repo := new(mocks.MockConversionHistoryRepo)
	repo.On("Create", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).
		Return(errors.New("insert failed")).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	service.NewHistoryService(repo).Record(ctx, &domain.ConversionRecord{})
	repo.AssertExpectations(t)
}

func TestHistoryService_NoopWhenDisabled(t *testing.T) {
	svc := service.NewHistoryService(nil)
	assert.False(t, svc.Enabled())
	svc.Record(context.Background(), &domain.ConversionRecord{})

	recs, total, err := svc.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Zero(t, total)
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "req-9/a_20240101_000000.pdf.html",
		service.ArchiveKey("req-9", "a_20240101_000000.pdf", domain.OutputHTML))
	assert.Equal(t, "req-9/x.md", service.ArchiveKey("req-9", "x", domain.OutputFormat("docx")))
}

func TestArchiveService_Archive(t *testing.T) {
	store := new(mocks.MockResultStore)
	store.On("Put", mock.Anything, mock.MatchedBy(func(obj port.ArchivedObject) bool {
		return obj.Key == "r/f.html" &&
			obj.ContentType == "text/html; charset=utf-8" &&
			obj.DownloadName == "f.html" &&
			obj.RequestID == "r" &&
			obj.Size == 5
	})).Return(&port.StoredObject{Key: "p/r/f.html"}, nil).Once()
	store.On("DownloadURL", mock.Anything, "r/f.html", "f.html", time.Minute).Return("https://signed", nil).Once()

	svc := service.NewArchiveService(store, &config.ArchiveConfig{PresignExpiry: 60})
	url, err := svc.Archive(context.Background(), "r", "f", domain.OutputHTML, "hello")
	require.NoError(t, err)
	assert.Equal(t, "https://signed", url)
	store.AssertExpectations(t)
}

func TestArchiveService_PresignFailureRemovesObject(t *testing.T) {
	store := new(mocks.MockResultStore)
	store.On("Put", mock.Anything, mock.MatchedBy(func(obj port.ArchivedObject) bool {
		return obj.ContentType == "text/plain; charset=utf-8" && obj.Size == 5
	})).Return(&port.StoredObject{}, nil).Once()
	store.On("DownloadURL", mock.Anything, "r/f.txt", "f.txt", time.Minute).Return("", errors.New("no creds")).Once()
	store.On("Remove", mock.Anything, "r/f.txt").Return(nil).Once()

	svc := service.NewArchiveService(store, &config.ArchiveConfig{PresignExpiry: 60})
	_, err := svc.Archive(context.Background(), "r", "f", domain.OutputPlaintext, "hello")
	assert.ErrorContains(t, err, "presigning")
	store.AssertExpectations(t)
}

func TestArchiveService_PutFailure(t *testing.T) {
	store := new(mocks.MockResultStore)
	store.On("Put", mock.Anything, mock.Anything).Return(nil, errors.New("bucket missing")).Once()

	svc := service.NewArchiveService(store, &config.ArchiveConfig{PresignExpiry: 60})
	_, err := svc.Archive(context.Background(), "r", "f", domain.OutputMarkdown, "hello")
	assert.ErrorContains(t, err, "bucket missing")
	store.AssertNotCalled(t, "DownloadURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
