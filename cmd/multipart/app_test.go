package main

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/apikit"
	"github.com/bjaus/apikit/apitest"
)

type limitBody struct {
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func newTestClient(t *testing.T) *apitest.Client {
	t.Helper()
	return apitest.NewClient(t, newRouter(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestUpload(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		form      *apitest.Form
		wantField string
		wantMood  []string
	}{
		"field within limit": {
			form:      apitest.NewForm().Field("stringField", "<p>hello</p>"),
			wantField: "<p>hello</p>",
			wantMood:  []string{},
		},
		"field at limit": {
			form:      apitest.NewForm().Field("stringField", strings.Repeat("a", MultipartMaxSize)),
			wantField: strings.Repeat("a", MultipartMaxSize),
			wantMood:  []string{},
		},
		"file part supplies the value": {
			form:      apitest.NewForm().File("stringField", "blob", []byte("from a file")),
			wantField: "from a file",
			wantMood:  []string{},
		},
		"json field decoded": {
			form: apitest.NewForm().
				Field("stringField", "x").
				Field("jsonField", `{"mood":["happy","calm"]}`),
			wantField: "x",
			wantMood:  []string{"happy", "calm"},
		},
		"malformed json field falls back to default": {
			form: apitest.NewForm().
				Field("stringField", "x").
				Field("jsonField", `{"mood":`),
			wantField: "x",
			wantMood:  []string{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t)

			resp := apitest.PostForm[uploadResp](t, c, "/testing-multi-part", tc.form)

			require.Equal(t, http.StatusOK, resp.Status, string(resp.RawBody))
			require.NotNil(t, resp.Body)
			assert.Equal(t, "ok", resp.Body.Status)
			assert.Equal(t, tc.wantField, resp.Body.Body.StringField)
			assert.Equal(t, tc.wantMood, resp.Body.Body.JSONField.Mood)
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("a", 100_000)

	tests := map[string]struct {
		form        *apitest.Form
		wantCode    string
		wantMessage string
	}{
		"field over ceiling": {
			form:        apitest.NewForm().Field("stringField", big),
			wantCode:    apikit.CodeFieldTooLarge,
			wantMessage: `Field "stringField" exceeds 10240 bytes`,
		},
		"field over ceiling after other parts": {
			form: apitest.NewForm().
				Field("jsonField", `{"mood":[]}`).
				Field("stringField", big).
				File("attachment", "a.txt", []byte("trailing")),
			wantCode:    apikit.CodeFieldTooLarge,
			wantMessage: `Field "stringField" exceeds 10240 bytes`,
		},
		"file over ceiling": {
			form:        apitest.NewForm().File("stringField", "blob", []byte(big)),
			wantCode:    apikit.CodeFileTooLarge,
			wantMessage: "request file too large",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t)

			resp := apitest.PostForm[limitBody](t, c, "/testing-multi-part", tc.form)

			require.Equal(t, http.StatusRequestEntityTooLarge, resp.Status)
			require.NotNil(t, resp.Body)
			assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Body.StatusCode)
			assert.Equal(t, tc.wantCode, resp.Body.Code)
			assert.Equal(t, tc.wantMessage, resp.Body.Message)
		})
	}
}

func TestUpload_JSONBody(t *testing.T) {
	t.Parallel()

	t.Run("oversized value is a validation error", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t)

		body := map[string]any{"stringField": strings.Repeat("a", 100_000)}
		resp := apitest.Post[map[string]any, apikit.ErrorEnvelope](t, c, "/testing-multi-part", &body)

		require.Equal(t, http.StatusBadRequest, resp.Status, string(resp.RawBody))
		require.NotNil(t, resp.Body)
		assert.Equal(t, "Response Validation Error", resp.Body.Error)
		assert.Equal(t, "Request doesn't match the schema", resp.Body.Message)
		assert.Equal(t, http.StatusBadRequest, resp.Body.StatusCode)
		assert.Equal(t, http.MethodPost, resp.Body.Details.Method)
		assert.Equal(t, "/testing-multi-part", resp.Body.Details.URL)
		require.Len(t, resp.Body.Details.Issues, 1)
		assert.Equal(t, "/stringField", resp.Body.Details.Issues[0].Path)
		assert.Equal(t, apikit.CodeTooBig, resp.Body.Details.Issues[0].Code)
	})

	t.Run("absent options get the default", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t)

		body := map[string]any{"stringField": "hi"}
		resp := apitest.Post[map[string]any, uploadResp](t, c, "/testing-multi-part", &body)

		require.Equal(t, http.StatusOK, resp.Status)
		require.NotNil(t, resp.Body)
		assert.Equal(t, "hi", resp.Body.Body.StringField)
		assert.Equal(t, []string{}, resp.Body.Body.JSONField.Mood)
	})

	t.Run("missing field is required", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t)

		body := map[string]any{}
		resp := apitest.Post[map[string]any, apikit.ErrorEnvelope](t, c, "/testing-multi-part", &body)

		require.Equal(t, http.StatusBadRequest, resp.Status)
		require.NotNil(t, resp.Body)
		assert.Equal(t, http.StatusBadRequest, resp.Body.StatusCode)
		require.Len(t, resp.Body.Details.Issues, 1)
		assert.Equal(t, "/stringField", resp.Body.Details.Issues[0].Path)
		assert.Equal(t, apikit.CodeRequired, resp.Body.Details.Issues[0].Code)
	})

	t.Run("wrong json shape names the nested key", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t)

		body := map[string]any{"stringField": "hi", "jsonField": map[string]any{"mood": "sad"}}
		resp := apitest.Post[map[string]any, apikit.ErrorEnvelope](t, c, "/testing-multi-part", &body)

		require.Equal(t, http.StatusBadRequest, resp.Status, string(resp.RawBody))
		require.NotNil(t, resp.Body)
		require.Len(t, resp.Body.Details.Issues, 1)
		assert.Equal(t, "/jsonField/mood", resp.Body.Details.Issues[0].Path)
		assert.Equal(t, apikit.CodeInvalidType, resp.Body.Details.Issues[0].Code)
	})
}

func TestUpload_UnsupportedContentType(t *testing.T) {
	t.Parallel()
	c := newTestClient(t)

	resp := apitest.PostText[apikit.ProblemDetail](t, c, "/testing-multi-part", "text/plain", "hello")

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Status)
}

func TestUpload_ConnectionReusedAfterRejection(t *testing.T) {
	t.Parallel()

	var conns atomic.Int32
	srv := httptest.NewUnstartedServer(newRouter(slog.New(slog.NewTextHandler(io.Discard, nil))))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	srv.Start()
	t.Cleanup(srv.Close)
	c := &apitest.Client{Server: srv}

	rejected := apitest.PostForm[limitBody](t, c, "/testing-multi-part",
		apitest.NewForm().Field("stringField", strings.Repeat("a", 100_000)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rejected.Status)

	accepted := apitest.PostForm[uploadResp](t, c, "/testing-multi-part",
		apitest.NewForm().Field("stringField", "ok"))
	require.Equal(t, http.StatusOK, accepted.Status)

	assert.Equal(t, int32(1), conns.Load())
}

func TestDocs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		path            string
		wantContentType string
	}{
		"swagger page":          {path: "/documentation", wantContentType: "text/html; charset=utf-8"},
		"trailing slash":        {path: "/documentation/", wantContentType: "text/html; charset=utf-8"},
		"json spec":             {path: "/documentation/json", wantContentType: "application/json"},
		"yaml spec":             {path: "/documentation/yaml", wantContentType: "application/yaml"},
		"dark theme stylesheet": {path: "/documentation/static/dark.css", wantContentType: "text/css; charset=utf-8"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t)

			resp := apitest.Get[struct{}](t, c, tc.path)

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, tc.wantContentType, resp.Headers.Get("Content-Type"))
		})
	}
}

func TestSpec(t *testing.T) {
	t.Parallel()

	spec := newRouter(slog.Default()).Spec()

	assert.Equal(t, "SampleApi", spec.Info.Title)
	assert.Equal(t, "Sample backend service", spec.Info.Description)

	op := spec.Paths["/testing-multi-part"]["post"]
	require.NotNil(t, op.RequestBody)

	ref := op.RequestBody.Content["multipart/form-data"].Schema.Ref
	require.Equal(t, "#/components/schemas/uploadReq", ref)
	assert.Equal(t, ref, op.RequestBody.Content["application/json"].Schema.Ref)

	form := spec.Components.Schemas["uploadReq"]
	require.Contains(t, form.Properties, "stringField")
	assert.Equal(t, "html", form.Properties["stringField"].Description)
	assert.Equal(t, []string{"stringField"}, form.Required)

	_, documented := op.Responses["413"]
	assert.True(t, documented)
}
