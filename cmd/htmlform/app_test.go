package main

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/apikit"
	"github.com/bjaus/apikit/apitest"
)

func newTestClient(t *testing.T) *apitest.Client {
	t.Helper()
	return apitest.NewClient(t, newRouter(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestForm(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		form     *apitest.Form
		wantHTML string
		wantMood []string
	}{
		"html within limit": {
			form:     apitest.NewForm().Field("html", "<h1>hi</h1>"),
			wantHTML: "<h1>hi</h1>",
			wantMood: []string{},
		},
		"html at limit": {
			form:     apitest.NewForm().Field("html", strings.Repeat("a", MultipartMaxSize)),
			wantHTML: strings.Repeat("a", MultipartMaxSize),
			wantMood: []string{},
		},
		"html sent as a file": {
			form:     apitest.NewForm().File("html", "page.html", []byte("<p>file</p>")),
			wantHTML: "<p>file</p>",
			wantMood: []string{},
		},
		"options decoded": {
			form: apitest.NewForm().
				Field("html", "x").
				Field("anotherField", `{"mood":["sunny"]}`),
			wantHTML: "x",
			wantMood: []string{"sunny"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t)

			resp := apitest.PostForm[formResp](t, c, "/testing-multi-part", tc.form)

			require.Equal(t, http.StatusOK, resp.Status, string(resp.RawBody))
			require.NotNil(t, resp.Body)
			assert.Equal(t, "ok", resp.Body.Status)
			assert.Equal(t, tc.wantHTML, resp.Body.Body.HTML)
			assert.Equal(t, tc.wantMood, resp.Body.Body.AnotherField.Mood)
		})
	}
}

func TestForm_SchemaFailures(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		form        *apitest.Form
		wantStatus  int
		wantPath    string
		wantCode    string
		wantMessage string
	}{
		"html over schema limit": {
			form:       apitest.NewForm().Field("html", strings.Repeat("a", MultipartMaxSize+1)),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantPath:   "/html",
			wantCode:   apikit.CodeTooBig,
		},
		"html over field size": {
			form:       apitest.NewForm().Field("html", strings.Repeat("a", 100_000)),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantPath:   "/html",
			wantCode:   apikit.CodeTooBig,
		},
		"html missing": {
			form:       apitest.NewForm().Field("anotherField", `{"mood":[]}`),
			wantStatus: http.StatusBadRequest,
			wantPath:   "/html",
			wantCode:   apikit.CodeRequired,
		},
		"options malformed": {
			form: apitest.NewForm().
				Field("html", "x").
				Field("anotherField", `{"mood":`),
			wantStatus:  http.StatusBadRequest,
			wantPath:    "/anotherField",
			wantCode:    apikit.CodeInvalidType,
			wantMessage: "parsing error",
		},
		"options of the wrong shape": {
			form: apitest.NewForm().
				Field("html", "x").
				Field("anotherField", `"happy"`),
			wantStatus:  http.StatusBadRequest,
			wantPath:    "/anotherField",
			wantCode:    apikit.CodeInvalidType,
			wantMessage: "parsing error",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t)

			resp := apitest.PostForm[apikit.ErrorEnvelope](t, c, "/testing-multi-part", tc.form)

			require.Equal(t, tc.wantStatus, resp.Status, string(resp.RawBody))
			require.NotNil(t, resp.Body)
			assert.Equal(t, "Response Validation Error", resp.Body.Error)
			assert.Equal(t, "Request doesn't match the schema", resp.Body.Message)
			assert.Equal(t, tc.wantStatus, resp.Body.StatusCode)
			assert.Equal(t, http.MethodPost, resp.Body.Details.Method)
			assert.Equal(t, "/testing-multi-part", resp.Body.Details.URL)

			require.Len(t, resp.Body.Details.Issues, 1)
			issue := resp.Body.Details.Issues[0]
			assert.Equal(t, tc.wantPath, issue.Path)
			assert.Equal(t, tc.wantCode, issue.Code)
			if tc.wantMessage != "" {
				assert.Equal(t, tc.wantMessage, issue.Message)
			}
		})
	}
}

func TestForm_FileTooLarge(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	form := apitest.NewForm().File("html", "page.html", []byte(strings.Repeat("a", 100_000)))
	resp := apitest.PostForm[apikit.MultipartError](t, c, "/testing-multi-part", form)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Status)
	require.NotNil(t, resp.Body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Body.Status)
	assert.Equal(t, apikit.CodeFileTooLarge, resp.Body.Code)
}

func TestForm_RejectsJSON(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	body := map[string]any{"html": "x"}
	resp := apitest.Post[map[string]any, apikit.ProblemDetail](t, c, "/testing-multi-part", &body)

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Status)
}

func TestForm_Spec(t *testing.T) {
	t.Parallel()

	spec := newRouter(slog.Default()).Spec()
	op := spec.Paths["/testing-multi-part"]["post"]
	require.NotNil(t, op.RequestBody)

	assert.Contains(t, op.RequestBody.Content, "multipart/form-data")
	assert.NotContains(t, op.RequestBody.Content, "application/json")

	schema := spec.Components.Schemas["formReq"]
	require.Contains(t, schema.Properties, "anotherField")
	assert.Equal(t, "Options", schema.Properties["anotherField"].Description)
	assert.Equal(t, map[string]any{"mood": []any{}}, schema.Properties["anotherField"].Default)
}
