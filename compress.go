package apikit

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressConfig configures the Compress middleware.
type CompressConfig struct {
	Level   int      // gzip level (1-9, default: 5)
	MinSize int      // minimum first write to compress (default: 1024)
	Types   []string // media type prefixes to compress (default: JSON, YAML, HTML, CSS, text)
}

// Compress returns middleware that gzip-compresses responses such as the
// OpenAPI document and the docs pages. Responses without a body are never
// compressed.
func Compress(cfg ...CompressConfig) Middleware {
	c := CompressConfig{
		Level:   5,
		MinSize: 1024,
		Types: []string{
			"application/json",
			"application/problem+json",
			"application/yaml",
			"text/",
		},
	}
	if len(cfg) > 0 {
		if cfg[0].Level > 0 {
			c.Level = cfg[0].Level
		}
		if cfg[0].MinSize > 0 {
			c.MinSize = cfg[0].MinSize
		}
		if len(cfg[0].Types) > 0 {
			c.Types = cfg[0].Types
		}
	}

	pool := &sync.Pool{
		New: func() any {
			gz, _ := gzip.NewWriterLevel(io.Discard, c.Level) //nolint:errcheck // level is pre-validated
			return gz
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipResponseWriter{
				ResponseWriter: w,
				pool:           pool,
				minSize:        c.MinSize,
				types:          c.Types,
			}
			defer gw.close()

			w.Header().Add("Vary", "Accept-Encoding")
			next.ServeHTTP(gw, r)
		})
	}
}

// gzipResponseWriter defers WriteHeader until the first write so the
// decision to compress can still change the headers.
type gzipResponseWriter struct {
	http.ResponseWriter
	pool    *sync.Pool
	writer  *gzip.Writer
	minSize int
	types   []string

	status     int
	headerSent bool
}

func (g *gzipResponseWriter) WriteHeader(code int) {
	if g.status == 0 {
		g.status = code
	}
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	if !g.headerSent {
		g.headerSent = true
		if g.status == 0 {
			g.status = http.StatusOK
		}
		if g.shouldCompress(g.Header().Get("Content-Type")) && len(b) >= g.minSize {
			g.writer = g.pool.Get().(*gzip.Writer) //nolint:errcheck,forcetypeassert // pool.New always returns *gzip.Writer
			g.writer.Reset(g.ResponseWriter)
			g.Header().Set("Content-Encoding", "gzip")
			g.Header().Del("Content-Length")
		}
		g.ResponseWriter.WriteHeader(g.status)
	}

	if g.writer != nil {
		return g.writer.Write(b)
	}
	return g.ResponseWriter.Write(b)
}

// close flushes the compressor, or the deferred status of an empty response.
func (g *gzipResponseWriter) close() {
	if !g.headerSent {
		if g.status != 0 {
			g.ResponseWriter.WriteHeader(g.status)
		}
		return
	}
	if g.writer != nil {
		//nolint:errcheck,gosec // best-effort flush
		g.writer.Close()
		g.pool.Put(g.writer)
		g.writer = nil
	}
}

func (g *gzipResponseWriter) shouldCompress(contentType string) bool {
	if g.Header().Get("Content-Encoding") != "" {
		return false
	}
	switch g.status {
	case http.StatusNoContent, http.StatusNotModified:
		return false
	}
	mt := mediaTypeOf(contentType)
	for _, t := range g.types {
		if strings.HasPrefix(mt, t) {
			return true
		}
	}
	return false
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}
