package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrMissingFile         = errors.New("no file provided")
	ErrInvalidOption       = errors.New("invalid option")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrStorageFailure      = errors.New("scratch storage failure")
	ErrEngineUnavailable   = errors.New("document engine unavailable")
	ErrOCRUnavailable      = errors.New("ocr backend unavailable")
	ErrUnsupportedFormat   = errors.New("unsupported document format")
)

// UnsupportedTypeError reports a sniffed content type outside the allow-list.
type UnsupportedTypeError struct {
	Detected string
	Allowed  []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s. Supported: %s", e.Detected, strings.Join(e.Allowed, ", "))
}

// Is makes errors.Is(err, ErrUnsupportedFileType) match.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedFileType
}

// StatusFor maps an error onto an envelope status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrUnauthorized):
		return StatusUnauthorized
	case errors.Is(err, ErrStorageFailure):
		return StatusStorage
	case errors.Is(err, ErrMissingFile),
		errors.Is(err, ErrInvalidOption),
		errors.Is(err, ErrUnsupportedFileType),
		errors.Is(err, ErrFileTooLarge):
		return StatusInvalidInput
	case errors.Is(err, ErrEngineUnavailable),
		errors.Is(err, ErrOCRUnavailable),
		errors.Is(err, ErrUnsupportedFormat):
		return StatusProcessing
	default:
		return StatusInternal
	}
}
