// Package ocr talks to an HTTP OCR service that accepts base64 data URLs and
// answers with per-page markdown.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/port"
)

const defaultModel = "mistral-ocr-latest"

var langPattern = regexp.MustCompile(`^[a-z]{2,3}([-_][A-Za-z]{2,4})?$`)

// ValidateLanguages rejects language codes that are not ISO-639 style.
func ValidateLanguages(langs []string) error {
	for _, l := range langs {
		if !langPattern.MatchString(l) {
			return fmt.Errorf("invalid OCR language code %q", l)
		}
	}
	return nil
}

// Client implements port.OCRBackend.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates an OCR client. It fails with domain.ErrOCRUnavailable when
// no endpoint is configured.
func NewClient(cfg *config.OCRConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", domain.ErrOCRUnavailable)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type documentRef struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type ocrRequest struct {
	Model     string      `json:"model"`
	Document  documentRef `json:"document"`
	Languages []string    `json:"languages,omitempty"`
}

type ocrResponse struct {
	Model string `json:"model"`
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

func (c *Client) Recognize(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
	if len(input.Data) == 0 {
		return nil, errors.New("empty OCR input")
	}

	dataURL := "data:" + input.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(input.Data)
	ref := documentRef{Type: "document_url", DocumentURL: dataURL}
	if strings.HasPrefix(input.MIMEType, "image/") {
		ref = documentRef{Type: "image_url", ImageURL: dataURL}
	}

	bodyBytes, err := json.Marshal(ocrRequest{
		Model:     c.model,
		Document:  ref,
		Languages: input.Languages,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling OCR API: %v", domain.ErrOCRUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	var parsed ocrResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	out := &port.OCROutput{Model: parsed.Model}
	for _, p := range parsed.Pages {
		out.Pages = append(out.Pages, p.Markdown)
	}
	return out, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
