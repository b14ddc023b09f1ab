package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docproc/internal/domain"
	"docproc/internal/logging"
)

// Response is the envelope for every API response. Status 0 is success.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondResult sends an orchestrated envelope. Processing failures and
// partial results are still 200: the envelope status carries the outcome.
func RespondResult(c *gin.Context, res domain.Result) {
	c.JSON(http.StatusOK, Response{Status: res.Status, Message: res.Message, Data: res.Data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, msg string, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, Response{Status: domain.StatusOK, Message: msg, Data: data, Meta: &meta})
}

// RespondError sends a failure envelope with the given HTTP status code.
func RespondError(c *gin.Context, httpStatus, status int, msg string) {
	c.JSON(httpStatus, Response{Status: status, Message: msg})
}

// MapDomainError translates domain errors to an HTTP status, an envelope
// status and a client-facing message.
func MapDomainError(err error) (httpStatus, status int, msg string) {
	var typeErr *domain.UnsupportedTypeError
	switch {
	case errors.As(err, &typeErr):
		return http.StatusBadRequest, domain.StatusInvalidInput, typeErr.Error()
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, domain.StatusInvalidInput, "No file provided"
	case errors.Is(err, domain.ErrInvalidOption):
		return http.StatusBadRequest, domain.StatusInvalidInput, err.Error()
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, domain.StatusInvalidInput, "Unsupported file type"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, domain.StatusInvalidInput, "File exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, domain.StatusUnauthorized, "Invalid authentication credentials"
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusInternalServerError, domain.StatusStorage, "Failed to store uploaded file"
	default:
		return http.StatusInternalServerError, domain.StatusInternal, "Internal server error"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	httpStatus, status, msg := MapDomainError(err)
	logger := logging.FromContext(c.Request.Context())
	if httpStatus >= 500 {
		logger.Error("Request failed", "error", err)
	} else {
		logger.Warn("Rejected request", "error", err)
	}
	RespondError(c, httpStatus, status, msg)
}
