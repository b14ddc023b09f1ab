package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/logging"
)

// StoredFile is an upload persisted to scratch storage. Release removes it
// and is safe to call more than once.
type StoredFile struct {
	domain.UploadedFile
	StoredName string

	once    sync.Once
	release func()
}

// Release deletes the scratch file exactly once.
func (f *StoredFile) Release() {
	if f == nil {
		return
	}
	f.once.Do(func() {
		if f.release != nil {
			f.release()
		}
	})
}

// UploadService validates and persists inbound files.
type UploadService interface {
	Save(ctx context.Context, r io.Reader, declaredName string) (*StoredFile, error)
	Cleanup(ctx context.Context, path string)
	AllowedTypes() []string
}

type uploadService struct {
	cfg *config.UploadConfig
	now func() time.Time
}

// NewUploadService creates an UploadService writing into cfg.Dir.
func NewUploadService(cfg *config.UploadConfig) (UploadService, error) {
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: creating upload dir %s: %v", domain.ErrStorageFailure, cfg.Dir, err)
	}
	return &uploadService{cfg: cfg, now: time.Now}, nil
}

func (s *uploadService) AllowedTypes() []string {
	return append([]string(nil), s.cfg.AllowedTypes...)
}

func (s *uploadService) Save(ctx context.Context, r io.Reader, declaredName string) (*StoredFile, error) {
	logger := logging.FromContext(ctx).With("component", "upload")

	sniffSize := s.cfg.SniffBytes
	if sniffSize <= 0 {
		sniffSize = 3072
	}
	head := make([]byte, sniffSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: reading upload: %v", domain.ErrStorageFailure, err)
	}
	head = head[:n]

	detected := baseMIMEType(mimetype.Detect(head).String())
	if !MIMEAllowed(detected, s.cfg.AllowedTypes) {
		logger.Warn("rejected upload", "file_name", declaredName, "detected_type", detected)
		return nil, &domain.UnsupportedTypeError{Detected: detected, Allowed: s.AllowedTypes()}
	}

	name := StoredFileName(declaredName, s.now())
	path := filepath.Join(s.cfg.Dir, name)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", domain.ErrStorageFailure, name, err)
	}

	// The sniffed prefix is replayed ahead of the rest of the stream.
	body := io.MultiReader(bytes.NewReader(head), r)
	limit := s.cfg.MaxFileSizeBytes()
	if limit > 0 {
		body = io.LimitReader(body, limit+1)
	}

	bufSize := s.cfg.CopyBufferSize
	if bufSize <= 0 {
		bufSize = 32 * 1024
	}
	written, copyErr := io.CopyBuffer(out, body, make([]byte, bufSize))
	closeErr := out.Close()

	stored := &StoredFile{
		UploadedFile: domain.UploadedFile{
			OriginalName:     declaredName,
			DetectedMIMEType: detected,
			StoredPath:       path,
			SizeBytes:        written,
		},
		StoredName: name,
	}
	stored.release = func() { s.Cleanup(ctx, path) }

	switch {
	case copyErr != nil:
		stored.Release()
		return nil, fmt.Errorf("%w: writing %s: %v", domain.ErrStorageFailure, name, copyErr)
	case closeErr != nil:
		stored.Release()
		return nil, fmt.Errorf("%w: closing %s: %v", domain.ErrStorageFailure, name, closeErr)
	case limit > 0 && written > limit:
		stored.Release()
		return nil, domain.ErrFileTooLarge
	}

	logger.Info("upload stored",
		"file_name", declaredName,
		"stored_name", name,
		"detected_type", detected,
		"size_bytes", written)
	return stored, nil
}

// Cleanup removes path. A missing file is not an error and other failures
// are only logged.
func (s *uploadService) Cleanup(ctx context.Context, path string) {
	if path == "" {
		return
	}
	err := os.Remove(path)
	switch {
	case err == nil:
		logging.FromContext(ctx).Debug("scratch file removed", "path", path)
	case errors.Is(err, fs.ErrNotExist):
	default:
		logging.FromContext(ctx).Error("failed to remove scratch file", "path", path, "error", err)
	}
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// StoredFileName derives the scratch name for an upload: directory parts are
// dropped, unsafe characters become "_" and a second-resolution timestamp is
// inserted before the extension.
func StoredFileName(declared string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(declared, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = ""
	}
	base = unsafeNameChars.ReplaceAllString(base, "_")

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stem = strings.TrimLeft(stem, ".")
	if stem == "" {
		stem = "upload"
	}
	return stem + now.Format("_20060102_150405") + ext
}

// MIMEAllowed reports whether detected equals an allow-list entry or falls in
// a wildcard family such as "image/*".
func MIMEAllowed(detected string, allowed []string) bool {
	detected = baseMIMEType(detected)
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == detected {
			return true
		}
		if family, ok := strings.CutSuffix(a, "/*"); ok && strings.HasPrefix(detected, family+"/") {
			return true
		}
	}
	return false
}

func baseMIMEType(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}
