package ocr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/ocr"
	"docproc/internal/port"
)

func newTestClient(t *testing.T, serverURL string) *ocr.Client {
	t.Helper()
	c, err := ocr.NewClient(&config.OCRConfig{
		Endpoint:    serverURL,
		APIKey:      "test-key",
		Model:       "ocr-test",
		TimeoutSecs: 5,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_NoEndpoint(t *testing.T) {
	_, err := ocr.NewClient(&config.OCRConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOCRUnavailable))
}

func TestClient_Recognize_Image(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ocr-test", body["model"])
		doc := body["document"].(map[string]any)
		assert.Equal(t, "image_url", doc["type"])
		assert.Equal(t, "data:image/png;base64,AQID", doc["image_url"])
		assert.Equal(t, []any{"id", "en"}, body["languages"])

		_, _ = w.Write([]byte(`{"model":"ocr-test","pages":[{"index":0,"markdown":"# Hello"},{"index":1,"markdown":"World"}]}`))
	}))
	defer server.Close()

	out, err := newTestClient(t, server.URL).Recognize(context.Background(), port.OCRInput{
		Data:      []byte{1, 2, 3},
		MIMEType:  "image/png",
		Languages: []string{"id", "en"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"# Hello", "World"}, out.Pages)
	assert.Equal(t, "ocr-test", out.Model)
}

func TestClient_Recognize_PDFUsesDocumentURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		doc := body["document"].(map[string]any)
		assert.Equal(t, "document_url", doc["type"])
		_, _ = w.Write([]byte(`{"pages":[]}`))
	}))
	defer server.Close()

	out, err := newTestClient(t, server.URL).Recognize(context.Background(), port.OCRInput{
		Data:     []byte("%PDF-1.4"),
		MIMEType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Empty(t, out.Pages)
}

func TestClient_Recognize_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Recognize(context.Background(), port.OCRInput{
		Data:     []byte{1},
		MIMEType: "image/png",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_Recognize_EmptyInput(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.Recognize(context.Background(), port.OCRInput{MIMEType: "image/png"})
	require.Error(t, err)
}

func TestValidateLanguages(t *testing.T) {
	assert.NoError(t, ocr.ValidateLanguages([]string{"id", "en", "deu", "zh-Hans", "pt_BR"}))
	assert.Error(t, ocr.ValidateLanguages([]string{"en", "English"}))
	assert.Error(t, ocr.ValidateLanguages([]string{"e"}))
	assert.NoError(t, ocr.ValidateLanguages(nil))
}
