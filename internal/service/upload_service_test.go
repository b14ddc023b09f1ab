package service_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/service"
)

func newUploadService(t *testing.T, allowed ...string) (service.UploadService, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	svc, err := service.NewUploadService(&config.UploadConfig{
		Dir:            dir,
		AllowedTypes:   allowed,
		MaxFileSizeMB:  1,
		SniffBytes:     3072,
		CopyBufferSize: 1024,
	})
	require.NoError(t, err)
	return svc, dir
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUploadService_SaveStoresFullBody(t *testing.T) {
	svc, dir := newUploadService(t, "text/plain")
	body := strings.Repeat("line of plain text\n", 5000)

	stored, err := svc.Save(context.Background(), strings.NewReader(body), "notes.txt")
	require.NoError(t, err)
	defer stored.Release()

	assert.Equal(t, "notes.txt", stored.OriginalName)
	assert.Equal(t, "text/plain", stored.DetectedMIMEType)
	assert.Equal(t, int64(len(body)), stored.SizeBytes)
	assert.Equal(t, dir, filepath.Dir(stored.StoredPath))
	assert.Regexp(t, `^notes_\d{8}_\d{6}\.txt$`, stored.StoredName)

	got, err := os.ReadFile(stored.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestUploadService_RejectsRenamedExecutable(t *testing.T) {
	svc, dir := newUploadService(t, "application/pdf", "text/plain")
	exe := append([]byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff"), make([]byte, 512)...)
	copy(exe[0x3c:], []byte{0x80, 0, 0, 0})
	copy(exe[0x80:], []byte("PE\x00\x00"))

	_, err := svc.Save(context.Background(), bytes.NewReader(exe), "invoice.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFileType))

	var ute *domain.UnsupportedTypeError
	require.ErrorAs(t, err, &ute)
	assert.NotEqual(t, "application/pdf", ute.Detected)
	assert.Equal(t, []string{"application/pdf", "text/plain"}, ute.Allowed)
	assert.Empty(t, dirEntries(t, dir))
}

func TestUploadService_WildcardFamily(t *testing.T) {
	svc, _ := newUploadService(t, "image/*")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	stored, err := svc.Save(context.Background(), bytes.NewReader(png), "scan.png")
	require.NoError(t, err)
	defer stored.Release()
	assert.Equal(t, "image/png", stored.DetectedMIMEType)
}

func TestUploadService_SizeCap(t *testing.T) {
	svc, dir := newUploadService(t, "text/plain")
	body := strings.Repeat("a", 1024*1024+1)

	_, err := svc.Save(context.Background(), strings.NewReader(body), "big.txt")
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	assert.Empty(t, dirEntries(t, dir))
}

func TestStoredFile_ReleaseIsIdempotent(t *testing.T) {
	svc, dir := newUploadService(t, "text/plain")
	stored, err := svc.Save(context.Background(), strings.NewReader("hello"), "a.txt")
	require.NoError(t, err)

	stored.Release()
	stored.Release()
	assert.Empty(t, dirEntries(t, dir))

	// A file that is already gone is not an error.
	svc.Cleanup(context.Background(), stored.StoredPath)
	svc.Cleanup(context.Background(), "")
}

func TestStoredFileName(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report_20240102_030405.pdf"},
		{"../../etc/pass wd.txt", "pass_wd_20240102_030405.txt"},
		{`C:\Users\x\évil;rm -rf.docx`, "_vil_rm_-rf_20240102_030405.docx"},
		{"", "upload_20240102_030405"},
		{"..", "upload_20240102_030405"},
		{"noext", "noext_20240102_030405"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := service.StoredFileName(tt.in, now)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "/")
			assert.NotContains(t, got, "..")
		})
	}
}

func TestMIMEAllowed(t *testing.T) {
	allowed := []string{"application/pdf", "image/*", "text/plain"}
	assert.True(t, service.MIMEAllowed("application/pdf", allowed))
	assert.True(t, service.MIMEAllowed("text/plain; charset=utf-8", allowed))
	assert.True(t, service.MIMEAllowed("image/jpeg", allowed))
	assert.False(t, service.MIMEAllowed("imagex/jpeg", allowed))
	assert.False(t, service.MIMEAllowed("application/x-msdownload", allowed))
	assert.False(t, service.MIMEAllowed("text/html", nil))
}
