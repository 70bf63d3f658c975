package apikit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// maxRequestIDLen bounds an inbound request ID before it is replaced.
const maxRequestIDLen = 128

type requestID string

// RequestIDConfig configures the RequestID middleware.
type RequestIDConfig struct {
	Header    string        // default: "X-Request-ID"
	Generator func() string // default: 32 random hex characters
}

// RequestID returns middleware that tags each request with an ID. An inbound
// ID is kept when it is at most 128 printable ASCII characters; otherwise a
// new one is generated. The ID is echoed in the response header and
// available to handlers through RequestIDFromContext.
func RequestID(cfg ...RequestIDConfig) Middleware {
	c := RequestIDConfig{Header: "X-Request-ID", Generator: newRequestID}
	if len(cfg) > 0 {
		if cfg[0].Header != "" {
			c.Header = cfg[0].Header
		}
		if cfg[0].Generator != nil {
			c.Generator = cfg[0].Generator
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(c.Header)
			if !validRequestID(id) {
				id = c.Generator()
			}
			w.Header().Set(c.Header, id)
			next.ServeHTTP(w, SetValue(r, requestID(id)))
		})
	}
}

// GetRequestID returns the ID RequestID assigned to r, or "".
func GetRequestID(r *http.Request) string {
	return RequestIDFromContext(r.Context())
}

// RequestIDFromContext returns the request ID from a handler context, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := GetValue[requestID](ctx)
	return string(id)
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

func newRequestID() string {
	var b [16]byte
	//nolint:errcheck,gosec // crypto/rand.Read never fails
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
