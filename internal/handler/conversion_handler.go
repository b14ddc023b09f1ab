package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docproc/internal/domain"
	"docproc/internal/middleware"
	"docproc/internal/service"
)

// ConversionDefaults are the values applied when a form field is omitted.
type ConversionDefaults struct {
	OCRLanguages  []string
	MaxTokens     int
	ChunkStrategy domain.ChunkStrategy
}

// ConversionHandler handles the convert and convert-and-chunk endpoints.
type ConversionHandler struct {
	conversionService service.ConversionService
	defaults          ConversionDefaults
}

// NewConversionHandler creates a new ConversionHandler.
func NewConversionHandler(conversionService service.ConversionService, defaults ConversionDefaults) *ConversionHandler {
	return &ConversionHandler{conversionService: conversionService, defaults: defaults}
}

// Convert handles POST /api/v1/convert
// @Summary Convert a document
// @Description Convert an uploaded document to plaintext, markdown or HTML
// @Tags conversion
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document to convert"
// @Param enable_ocr formData string false "Enable OCR (true/1/yes/on/y)"
// @Param output_type formData string false "plaintext, markdown or html" default(markdown)
// @Param ocr_langs formData string false "Comma-separated OCR languages"
// @Success 200 {object} Response{data=domain.ConversionData} "Conversion envelope"
// @Failure 400 {object} Response "Missing file, unsupported type or invalid option"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 413 {object} Response "File too large"
// @Failure 500 {object} Response "Storage failure"
// @Security BearerAuth
// @Router /api/v1/convert [post]
func (h *ConversionHandler) Convert(c *gin.Context) {
	opts, err := h.conversionOptions(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		HandleError(c, domain.ErrMissingFile)
		return
	}
	defer func() { _ = file.Close() }()

	input := service.ConvertInput{
		File:      file,
		FileName:  header.Filename,
		RequestID: middleware.GetRequestID(c),
		Principal: principalName(c),
		Options:   opts,
	}

	res, err := h.conversionService.Convert(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondResult(c, res)
}

// ConvertAndChunk handles POST /api/v1/convert_n_chunk
// @Summary Convert and chunk a document
// @Description Convert an uploaded document and split it into token-bounded chunks
// @Tags conversion
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document to convert"
// @Param enable_ocr formData string false "Enable OCR (true/1/yes/on/y)"
// @Param output_type formData string false "plaintext, markdown or html" default(markdown)
// @Param ocr_langs formData string false "Comma-separated OCR languages"
// @Param max_tokens formData int false "Token budget per chunk" default(512)
// @Param chunk_type formData string false "hierarchical, hybrid or page" default(hybrid)
// @Success 200 {object} Response{data=domain.ChunkingData} "Chunking envelope"
// @Failure 400 {object} Response "Missing file, unsupported type or invalid option"
// @Failure 401 {object} Response "Unauthorized"
// @Failure 413 {object} Response "File too large"
// @Failure 500 {object} Response "Storage failure"
// @Security BearerAuth
// @Router /api/v1/convert_n_chunk [post]
func (h *ConversionHandler) ConvertAndChunk(c *gin.Context) {
	opts, err := h.conversionOptions(c)
	if err != nil {
		HandleError(c, err)
		return
	}
	chunkOpts, err := h.chunkOptions(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		HandleError(c, domain.ErrMissingFile)
		return
	}
	defer func() { _ = file.Close() }()

	input := service.ConvertAndChunkInput{
		ConvertInput: service.ConvertInput{
			File:      file,
			FileName:  header.Filename,
			RequestID: middleware.GetRequestID(c),
			Principal: principalName(c),
			Options:   opts,
		},
		Chunk: chunkOpts,
	}

	res, err := h.conversionService.ConvertAndChunk(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondResult(c, res)
}

func (h *ConversionHandler) conversionOptions(c *gin.Context) (domain.ConversionOptions, error) {
	format, err := domain.ParseOutputFormat(formValue(c, "output_type"))
	if err != nil {
		return domain.ConversionOptions{}, err
	}
	langs := domain.ParseLanguages(formValue(c, "ocr_langs"))
	if len(langs) == 0 {
		langs = h.defaults.OCRLanguages
	}
	return domain.ConversionOptions{
		EnableOCR:    domain.ParseBoolFlag(formValue(c, "enable_ocr")),
		OCRLanguages: langs,
		OutputFormat: format,
	}, nil
}

func (h *ConversionHandler) chunkOptions(c *gin.Context) (domain.ChunkOptions, error) {
	maxTokens := h.defaults.MaxTokens
	if raw := strings.TrimSpace(formValue(c, "max_tokens")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return domain.ChunkOptions{}, fmt.Errorf("%w: max_tokens must be a positive integer, got %q", domain.ErrInvalidOption, raw)
		}
		maxTokens = n
	}
	strategy, err := domain.ParseChunkStrategy(formValue(c, "chunk_type"), h.defaults.ChunkStrategy)
	if err != nil {
		return domain.ChunkOptions{}, err
	}
	return domain.ChunkOptions{MaxTokens: maxTokens, Strategy: strategy}, nil
}

// formValue reads a multipart field, falling back to the query string.
func formValue(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok {
		return v
	}
	return c.Query(key)
}

func principalName(c *gin.Context) string {
	p, err := middleware.GetPrincipal(c)
	if err != nil {
		return ""
	}
	if p.Username != "" {
		return p.Username
	}
	return p.ID
}
