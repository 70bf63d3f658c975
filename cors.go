package apikit

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. "*" allows any origin and
	// "https://*.example.com" allows any subdomain of example.com.
	AllowOrigins []string
	AllowMethods []string
	// AllowHeaders lists the request headers a preflight may ask for. When
	// empty, the headers the preflight asks for are echoed back.
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// CORS returns middleware that handles Cross-Origin Resource Sharing. With
// no config any origin may call with the common methods and the
// Content-Type and Authorization headers. With an origin list the request
// origin is echoed back when it matches; other origins get no CORS headers
// and preflights from them fall through to the route.
func CORS(cfg ...CORSConfig) Middleware {
	c := CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}
	if len(cfg) > 0 {
		c = cfg[0]
	}

	match := originMatcher(c.AllowOrigins)
	methods := strings.Join(c.AllowMethods, ", ")
	headers := strings.Join(c.AllowHeaders, ", ")
	expose := strings.Join(c.ExposeHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			allowed, ok := match(r.Header.Get("Origin"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", allowed)
			if c.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", methods)
			switch {
			case headers != "":
				h.Set("Access-Control-Allow-Headers", headers)
			case r.Header.Get("Access-Control-Request-Headers") != "":
				h.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
			}
			if c.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(c.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// originMatcher returns a func reporting the Allow-Origin value for an
// origin, if it is allowed.
func originMatcher(allowed []string) func(origin string) (string, bool) {
	var exact []string
	var suffixes [][2]string
	for _, o := range allowed {
		if o == "*" {
			return func(string) (string, bool) { return "*", true }
		}
		if scheme, host, ok := strings.Cut(o, "://*."); ok {
			suffixes = append(suffixes, [2]string{scheme + "://", "." + host})
			continue
		}
		exact = append(exact, o)
	}

	return func(origin string) (string, bool) {
		if origin == "" {
			return "", false
		}
		for _, o := range exact {
			if o == origin {
				return origin, true
			}
		}
		for _, s := range suffixes {
			rest, ok := strings.CutPrefix(origin, s[0])
			if ok && strings.HasSuffix(rest, s[1]) && len(rest) > len(s[1]) {
				return origin, true
			}
		}
		return "", false
	}
}
