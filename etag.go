package apikit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// ETagConfig configures the ETag middleware.
type ETagConfig struct {
	Weak bool // use weak ETags
}

// ETag returns middleware that tags successful GET and HEAD responses with
// a content hash and answers matching If-None-Match requests with 304. The
// spec endpoints use it; the document only changes when routes do.
func ETag(cfg ...ETagConfig) Middleware {
	c := ETagConfig{}
	if len(cfg) > 0 {
		c = cfg[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only apply to GET/HEAD.
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			rec := &etagRecorder{
				ResponseWriter: w,
				status:         http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			// Only compute etag for 2xx responses.
			if rec.status < 200 || rec.status >= 300 {
				w.WriteHeader(rec.status)
				//nolint:errcheck,gosec // best-effort write
				w.Write(rec.buf.Bytes())
				return
			}

			etag := contentTag(rec.buf.Bytes(), c.Weak)
			w.Header().Set("ETag", etag)

			if ifNoneMatch(r.Header.Get("If-None-Match"), etag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}

			w.WriteHeader(rec.status)
			//nolint:errcheck,gosec // best-effort write
			w.Write(rec.buf.Bytes())
		})
	}
}

func contentTag(body []byte, weak bool) string {
	hash := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(hash[:8]) + `"`
	if weak {
		etag = "W/" + etag
	}
	return etag
}

// ifNoneMatch reports whether header lists etag or "*". Comparison is weak.
func ifNoneMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

type etagRecorder struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (e *etagRecorder) WriteHeader(code int) {
	e.status = code
}

func (e *etagRecorder) Write(b []byte) (int, error) {
	return e.buf.Write(b)
}
