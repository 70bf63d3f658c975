package apikit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/apikit"
)

func TestETag(t *testing.T) {
	t.Parallel()

	body := func(status int, text string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(text))
		})
	}

	t.Run("tags and revalidates", func(t *testing.T) {
		t.Parallel()

		h := apikit.ETag()(body(http.StatusOK, "spec"))

		rec := get(t, h, "/")
		tag := rec.Header().Get("ETag")
		require.Equal(t, apikit.ContentTag([]byte("spec"), false), tag)
		assert.Equal(t, "spec", rec.Body.String())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("If-None-Match", `"other", W/`+tag)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotModified, rec.Code)
	})

	t.Run("weak tags", func(t *testing.T) {
		t.Parallel()

		h := apikit.ETag(apikit.ETagConfig{Weak: true})(body(http.StatusOK, "spec"))
		assert.Equal(t, "W/"+apikit.ContentTag([]byte("spec"), false), get(t, h, "/").Header().Get("ETag"))
	})

	t.Run("errors pass through untagged", func(t *testing.T) {
		t.Parallel()

		rec := get(t, apikit.ETag()(body(http.StatusNotFound, "missing")), "/")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "missing", rec.Body.String())
		assert.Empty(t, rec.Header().Get("ETag"))
	})

	t.Run("unsafe methods are untouched", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		apikit.ETag()(body(http.StatusCreated, "made")).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Empty(t, rec.Header().Get("ETag"))
	})
}

func TestIfNoneMatch(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		header string
		want   bool
	}{
		"empty":    {header: "", want: false},
		"exact":    {header: `"abc"`, want: true},
		"weak":     {header: `W/"abc"`, want: true},
		"list":     {header: `"x", "abc"`, want: true},
		"wildcard": {header: "*", want: true},
		"miss":     {header: `"abd"`, want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, apikit.IfNoneMatch(tc.header, `"abc"`))
		})
	}
}
