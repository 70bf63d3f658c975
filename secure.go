package apikit

import (
	"net/http"
	"strconv"
)

// SecureConfig configures the Secure middleware. Empty values omit the
// corresponding header.
type SecureConfig struct {
	Nosniff        bool   // X-Content-Type-Options: nosniff
	FrameOptions   string // X-Frame-Options
	ReferrerPolicy string // Referrer-Policy
	HSTSMaxAge     int    // Strict-Transport-Security max-age, in seconds
}

// docsHeaders are set on the docs page and its theme assets.
var docsHeaders = SecureConfig{
	Nosniff:        true,
	FrameOptions:   "SAMEORIGIN",
	ReferrerPolicy: "same-origin",
}

// Secure returns middleware that sets security response headers. With no
// arguments it sends nosniff, X-Frame-Options: DENY and a
// strict-origin-when-cross-origin referrer policy.
func Secure(cfg ...SecureConfig) Middleware {
	c := SecureConfig{
		Nosniff:        true,
		FrameOptions:   "DENY",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}
	if len(cfg) > 0 {
		c = cfg[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if c.Nosniff {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if c.FrameOptions != "" {
				h.Set("X-Frame-Options", c.FrameOptions)
			}
			if c.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", c.ReferrerPolicy)
			}
			if c.HSTSMaxAge > 0 {
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(c.HSTSMaxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
