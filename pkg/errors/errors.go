package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeUpstreamUnavailable     = "UPSTREAM_UNAVAILABLE"
	CodeMalformedStructuredData = "MALFORMED_STRUCTURED_DATA"
	CodeNoExtractableData       = "NO_EXTRACTABLE_DATA"
	CodeComputationDefault      = "COMPUTATION_DEFAULT"
	CodeValidation              = "VALIDATION_ERROR"
	CodeNotFound                = "NOT_FOUND"
	CodeStorage                 = "STORAGE_ERROR"
)

// ReuploadHint is shown to the user whenever no profile numbers could be read.
const ReuploadHint = "無法從截圖中讀取 IG 資訊，請上傳清晰且包含完整個人頁面（粉絲數、追蹤數、貼文數）的截圖。"

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any *AppError carrying the same code, so callers can write
// errors.Is(err, errors.ErrNoExtractableData).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(message, code string, statusCode int) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Sentinels for errors.Is comparisons. Never mutate these; use the constructors.
var (
	ErrUpstreamUnavailable = New("upstream model unavailable", CodeUpstreamUnavailable, 502)
	ErrNoExtractableData   = New(ReuploadHint, CodeNoExtractableData, 422)
	ErrNotFound            = New("resource not found", CodeNotFound, 404)
)

func NewUpstreamUnavailable(provider string, cause error) *AppError {
	return New("upstream model unavailable", CodeUpstreamUnavailable, 502).
		WithContext("provider", provider).
		WithCause(cause)
}

func NewMalformedStructuredData(stage string, cause error) *AppError {
	return New("structured data rejected", CodeMalformedStructuredData, 500).
		WithContext("stage", stage).
		WithCause(cause)
}

func NewNoExtractableData() *AppError {
	return New(ReuploadHint, CodeNoExtractableData, 422)
}

// NewComputationDefault marks a qualitative attribute that was missing or out
// of range and replaced by its default. It is logged, never returned.
func NewComputationDefault(field string) *AppError {
	return New("attribute "+field+" defaulted", CodeComputationDefault, 200).
		WithContext("field", field)
}

func NewValidationError(message, field string) *AppError {
	return New(message, CodeValidation, 400).WithContext("field", field)
}

func NewNotFound(resource string, cause error) *AppError {
	return New(resource+" not found", CodeNotFound, 404).WithCause(cause)
}

func NewStorageError(message string, cause error) *AppError {
	return New(message, CodeStorage, 500).WithCause(cause)
}

// As returns the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the AppError code in err's chain, or "" when there is none.
func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}
