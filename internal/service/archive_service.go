package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/port"
)

// ArchiveService stores rendered results in object storage and hands back a
// time-limited download URL.
type ArchiveService interface {
	Archive(ctx context.Context, requestID, storedName string, format domain.OutputFormat, content string) (string, error)
}

type archiveService struct {
	store  port.ResultStore
	expiry time.Duration
}

// NewArchiveService creates an ArchiveService backed by store.
func NewArchiveService(store port.ResultStore, cfg *config.ArchiveConfig) ArchiveService {
	return &archiveService{
		store:  store,
		expiry: time.Duration(cfg.PresignExpiry) * time.Second,
	}
}

var archiveFormats = map[domain.OutputFormat]struct{ ext, contentType string }{
	domain.OutputPlaintext: {"txt", "text/plain; charset=utf-8"},
	domain.OutputMarkdown:  {"md", "text/markdown; charset=utf-8"},
	domain.OutputHTML:      {"html", "text/html; charset=utf-8"},
}

func archiveFormat(format domain.OutputFormat) (ext, contentType string) {
	f, ok := archiveFormats[format]
	if !ok {
		f = archiveFormats[domain.OutputMarkdown]
	}
	return f.ext, f.contentType
}

// ArchiveKey is {request_id}/{stored_name}.{ext}; the store adds its prefix.
func ArchiveKey(requestID, storedName string, format domain.OutputFormat) string {
	ext, _ := archiveFormat(format)
	return path.Join(requestID, storedName+"."+ext)
}

// Archive uploads content and presigns it. If presigning fails the object is
// removed again, since nobody could reach it.
func (s *archiveService) Archive(ctx context.Context, requestID, storedName string, format domain.OutputFormat, content string) (string, error) {
	key := ArchiveKey(requestID, storedName, format)
	_, contentType := archiveFormat(format)
	downloadName := path.Base(key)

	if _, err := s.store.Put(ctx, port.ArchivedObject{
		Key:          key,
		Body:         strings.NewReader(content),
		Size:         int64(len(content)),
		ContentType:  contentType,
		DownloadName: downloadName,
		RequestID:    requestID,
	}); err != nil {
		return "", fmt.Errorf("archiving result: %w", err)
	}

	url, err := s.store.DownloadURL(ctx, key, downloadName, s.expiry)
	if err != nil {
		if rmErr := s.store.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		return "", fmt.Errorf("presigning archived result: %w", err)
	}
	return url, nil
}
