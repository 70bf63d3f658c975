package apikit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for request binding.
var (
	ErrBindPath   = errors.New("bind path")
	ErrBindQuery  = errors.New("bind query")
	ErrBindHeader = errors.New("bind header")
	ErrBindCookie = errors.New("bind cookie")
	ErrBindBody   = errors.New("bind body")
	ErrBindForm   = errors.New("bind form")
)

// Issue codes reported by binding and constraint validation.
const (
	CodeRequired      = "required"
	CodeInvalidType   = "invalid_type"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeInvalidFormat = "invalid_format"
	CodeInvalidEnum   = "invalid_enum"
	CodeUnknownKey    = "unknown_key"
)

// StatusCoder is implemented by errors or responses that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// Issue describes a single validation failure. Path is a JSON Pointer rooted
// at the request ("/body/name", "/query/page") or at the response body.
type Issue struct {
	Path    string         `json:"path"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// Issues is an ordered collection of validation failures.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	const maxShown = 3
	msg := ""
	for i, it := range iss {
		if i == maxShown {
			msg += fmt.Sprintf("; ... (total %d)", len(iss))
			break
		}
		if i > 0 {
			msg += "; "
		}
		msg += it.Code + " at " + it.Path
	}
	return msg
}

// HasCode reports whether any issue carries the given code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// RequestValidationError reports that the inbound request does not match the
// route's declared request type.
type RequestValidationError struct {
	Issues Issues
	// Cause holds the underlying binding errors, if any.
	Cause error
}

func (e *RequestValidationError) Error() string {
	return "request validation: " + e.Issues.Error()
}

// Unwrap returns the underlying binding errors.
func (e *RequestValidationError) Unwrap() error { return e.Cause }

// StatusCode returns 400.
func (e *RequestValidationError) StatusCode() int { return http.StatusBadRequest }

// ResponseSerializationError reports that a handler returned a value that
// violates the route's declared response type.
type ResponseSerializationError struct {
	Issues Issues
	Method string
	URL    string
}

func (e *ResponseSerializationError) Error() string {
	return fmt.Sprintf("response serialization for %s %s: %s", e.Method, e.URL, e.Issues.Error())
}

// StatusCode returns 500.
func (e *ResponseSerializationError) StatusCode() int { return http.StatusInternalServerError }

// ProblemDetail is an RFC 9457 problem details response.
//
//nolint:errname // RFC 9457 standard name
type ProblemDetail struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   Issues `json:"errors,omitempty"`
}

// Error returns the detail message (or title if detail is empty).
func (p *ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// StatusCode returns the HTTP status code.
func (p *ProblemDetail) StatusCode() int { return p.Status }

// HTTPError is an error with an HTTP status code.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error returns the error message.
func (e *HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int { return e.Status }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// ErrorStatus extracts the HTTP status code from an error. An expired
// request deadline maps to 503. Returns http.StatusInternalServerError if
// the error does not implement StatusCoder.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
