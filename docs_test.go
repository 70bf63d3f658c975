package apikit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/apikit"
)

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServeDocs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts      []apikit.DocsOption
		wantPage  []string
		wantFound []string
		wantGone  []string
	}{
		"elements": {
			wantPage: []string{"Widgets", "elements-api", `apiDescriptionUrl="/openapi.json"`},
			wantGone: []string{"/docs/json", "/docs/openapi.json"},
		},
		"elements with own spec url": {
			opts:     []apikit.DocsOption{apikit.WithDocsSpecURL("/v2/spec.json"), apikit.WithDocsTitle("Custom")},
			wantPage: []string{"Custom", `apiDescriptionUrl="/v2/spec.json"`},
		},
		"swagger": {
			opts:      []apikit.DocsOption{apikit.WithSwaggerUI()},
			wantPage:  []string{"swagger-ui-bundle.js", "docs/json"},
			wantFound: []string{"/docs/json", "/docs/yaml"},
		},
		"swagger dark": {
			opts:      []apikit.DocsOption{apikit.WithSwaggerUI(), apikit.WithDocsTheme("dark")},
			wantPage:  []string{`href="/docs/static/dark.css"`},
			wantFound: []string{"/docs/static/dark.css"},
		},
		"scalar": {
			opts: []apikit.DocsOption{apikit.WithScalar(apikit.ScalarConfig{"theme": "purple"})},
			wantPage: []string{
				"@scalar/api-reference",
				`data-url="/docs/openapi.json"`,
				`data-configuration="{&#34;theme&#34;:&#34;purple&#34;}"`,
			},
			wantFound: []string{"/docs/openapi.json", "/docs/openapi.yaml"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := apikit.New(apikit.WithTitle("Widgets"))
			r.ServeDocs("/docs", tc.opts...)

			rec := get(t, r, "/docs")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			for _, s := range tc.wantPage {
				assert.Contains(t, rec.Body.String(), s)
			}
			for _, p := range tc.wantFound {
				assert.Equal(t, http.StatusOK, get(t, r, p).Code, p)
			}
			for _, p := range tc.wantGone {
				assert.Equal(t, http.StatusNotFound, get(t, r, p).Code, p)
			}
		})
	}
}

func TestServeDocs_theme_stylesheet(t *testing.T) {
	t.Parallel()

	r := apikit.New()
	r.ServeDocs("/docs", apikit.WithDocsTheme("dark"))

	rec := get(t, r, "/docs/static/dark.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.NotEmpty(t, rec.Body.String())

	for _, target := range []string{"/docs", "/docs/static/dark.css"} {
		h := get(t, r, target).Header()
		assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"), target)
		assert.Equal(t, "SAMEORIGIN", h.Get("X-Frame-Options"), target)
		assert.Equal(t, "same-origin", h.Get("Referrer-Policy"), target)
	}

	assert.Equal(t, http.StatusNotFound, get(t, r, "/docs/static/").Code)
}

func TestServeDocs_unknown_theme(t *testing.T) {
	t.Parallel()

	r := apikit.New()
	assert.PanicsWithValue(t, `apikit: unknown docs theme "neon"`, func() {
		r.ServeDocs("/docs", apikit.WithDocsTheme("neon"))
	})
}
