package apikit

import "net/http"

// BodyLimit returns middleware that limits the maximum request body size.
// Requests announcing a larger Content-Length are rejected with 413 before
// the handler runs; bodies that grow past the limit while being read fail
// binding with 413.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeErrorResponse(w, Errorf(http.StatusRequestEntityTooLarge,
					"request body exceeds %d bytes", maxBytes))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
