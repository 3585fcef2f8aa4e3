package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeFetch        = "FETCH_FAILED"
	ErrCodeParse        = "PARSE_FAILED"
	ErrCodeRender       = "RENDER_FAILED"
	ErrCodeMerge        = "MERGE_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// Phase maps an error code to the pipeline phase it is reported under.
func (e *ScrapeError) Phase() Phase {
	switch e.Code {
	case ErrCodeFetch:
		return PhaseFetch
	case ErrCodeParse:
		return PhaseParse
	case ErrCodeInvalidInput:
		return PhaseValidation
	default:
		return PhaseRender
	}
}

// Describe renders err for a result's error list. ScrapeErrors render
// without their code prefix.
func Describe(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		if se.Err != nil {
			return se.Message + ": " + se.Err.Error()
		}
		return se.Message
	}
	return err.Error()
}
