package apikit

import (
	"errors"
	"log/slog"
	"net/http"
)

const (
	msgRequestMismatch  = "Request doesn't match the schema"
	msgResponseMismatch = "Response doesn't match the schema"
)

// ErrorEnvelope is the body SchemaErrorHandler writes for schema failures.
type ErrorEnvelope struct {
	Error      string       `json:"error"`
	Message    string       `json:"message"`
	StatusCode int          `json:"statusCode"`
	Details    ErrorDetails `json:"details"`
}

// ErrorDetails lists the failing issues of the request or response.
type ErrorDetails struct {
	Issues Issues `json:"issues"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

// EnvelopeOption configures SchemaErrorHandler.
type EnvelopeOption func(*envelopeConfig)

type envelopeConfig struct {
	tooBigStatus int
	logger       *slog.Logger
}

// WithTooBigStatus answers request validation failures that include a
// too_big issue with status instead of 400.
func WithTooBigStatus(status int) EnvelopeOption {
	return func(c *envelopeConfig) {
		c.tooBigStatus = status
	}
}

// WithEnvelopeLogger sets the logger for rejected requests. Defaults to
// slog.Default().
func WithEnvelopeLogger(l *slog.Logger) EnvelopeOption {
	return func(c *envelopeConfig) {
		c.logger = l
	}
}

// SchemaErrorHandler returns an ErrorHandler that renders request
// validation failures (400) and response serialization failures (500) as an
// ErrorEnvelope. The statusCode in the body always equals the HTTP status.
// Any other error is written as problem details, or as its own body for a
// *MultipartError.
func SchemaErrorHandler(opts ...EnvelopeOption) ErrorHandler {
	cfg := envelopeConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(w http.ResponseWriter, r *http.Request, err error) {
		var (
			rve *RequestValidationError
			rse *ResponseSerializationError
		)

		switch {
		case errors.As(err, &rve):
			status := http.StatusBadRequest
			if cfg.tooBigStatus != 0 && rve.Issues.HasCode(CodeTooBig) {
				status = cfg.tooBigStatus
			}
			cfg.logger.WarnContext(r.Context(), "request validation failed",
				"method", r.Method,
				"url", r.URL.RequestURI(),
				"status", status,
				"issues", rve.Issues.Error(),
			)
			writeJSON(w, status, "application/json; charset=utf-8", ErrorEnvelope{
				Error:      "Response Validation Error",
				Message:    msgRequestMismatch,
				StatusCode: status,
				Details: ErrorDetails{
					Issues: rve.Issues,
					Method: r.Method,
					URL:    r.URL.RequestURI(),
				},
			})

		case errors.As(err, &rse):
			writeJSON(w, http.StatusInternalServerError, "application/json; charset=utf-8", ErrorEnvelope{
				Error:      http.StatusText(http.StatusInternalServerError),
				Message:    msgResponseMismatch,
				StatusCode: http.StatusInternalServerError,
				Details: ErrorDetails{
					Issues: rse.Issues,
					Method: rse.Method,
					URL:    rse.URL,
				},
			})

		default:
			writeErrorResponse(w, err)
		}
	}
}
