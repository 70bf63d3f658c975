package apikit

import (
	"context"
	"net/http"
	"time"
)

// Timeout returns middleware that bounds the request context by d. A typed
// handler that returns the context's error is answered with 503; raw
// handlers decide for themselves. A non-positive d disables the bound.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
