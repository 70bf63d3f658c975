package apikit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/apikit"
)

type acceptedResp struct {
	Job string `json:"job"`
}

func (*acceptedResp) StatusCode() int { return http.StatusAccepted }

type sessionResp struct {
	User string `json:"user"`
}

func (*sessionResp) Cookies() []*http.Cookie {
	return []*http.Cookie{{Name: "sid", Value: "abc", Path: "/"}}
}

func (*sessionResp) SetHeaders(h http.Header) {
	h.Set("X-Session", "new")
}

func TestResponse(t *testing.T) {
	t.Parallel()

	type Resp struct {
		Items []string `json:"items"`
	}

	r := apikit.New()
	apikit.Get(r, "/items", func(_ context.Context, _ *apikit.Void) (*Resp, error) {
		return &Resp{Items: []string{"a"}}, nil
	})
	apikit.Post(r, "/jobs", func(_ context.Context, _ *apikit.Void) (*acceptedResp, error) {
		return &acceptedResp{Job: "j1"}, nil
	})
	apikit.Post(r, "/login", func(_ context.Context, _ *apikit.Void) (*sessionResp, error) {
		return &sessionResp{User: "ada"}, nil
	}, apikit.WithStatus(http.StatusCreated))
	apikit.Delete(r, "/items/{id}", func(_ context.Context, _ *apikit.Void) (*apikit.Void, error) {
		return nil, nil
	})
	apikit.Get(r, "/old", func(_ context.Context, _ *apikit.Void) (*apikit.Redirect, error) {
		return &apikit.Redirect{URL: "/new"}, nil
	})
	apikit.Get(r, "/moved", func(_ context.Context, _ *apikit.Void) (*apikit.Redirect, error) {
		return &apikit.Redirect{URL: "/new", Status: http.StatusMovedPermanently}, nil
	}, apikit.WithStatus(http.StatusMovedPermanently))

	tests := map[string]struct {
		method     string
		target     string
		accept     string
		wantStatus int
		wantType   string
		wantBody   string
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		"json by default": {
			method:     http.MethodGet,
			target:     "/items",
			wantStatus: http.StatusOK,
			wantType:   "application/json",
			wantBody:   `{"items":["a"]}`,
		},
		"wildcard accept": {
			method:     http.MethodGet,
			target:     "/items",
			accept:     "text/html;q=0.9, */*;q=0.8",
			wantStatus: http.StatusOK,
			wantType:   "application/json",
		},
		"text is never chosen for structs": {
			method:     http.MethodGet,
			target:     "/items",
			accept:     "text/plain",
			wantStatus: http.StatusNotAcceptable,
			wantType:   "application/problem+json",
		},
		"status coder": {
			method:     http.MethodPost,
			target:     "/jobs",
			wantStatus: http.StatusAccepted,
			wantBody:   `{"job":"j1"}`,
		},
		"cookies and headers": {
			method:     http.MethodPost,
			target:     "/login",
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				t.Helper()
				assert.Equal(t, "new", rec.Header().Get("X-Session"))
				assert.Contains(t, rec.Header().Get("Set-Cookie"), "sid=abc")
			},
		},
		"void is no content": {
			method:     http.MethodDelete,
			target:     "/items/1",
			wantStatus: http.StatusNoContent,
		},
		"redirect defaults to found": {
			method:     http.MethodGet,
			target:     "/old",
			accept:     "application/xml",
			wantStatus: http.StatusFound,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				t.Helper()
				assert.Equal(t, "/new", rec.Header().Get("Location"))
			},
		},
		"redirect status": {
			method:     http.MethodGet,
			target:     "/moved",
			wantStatus: http.StatusMovedPermanently,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tc.method, tc.target, nil)
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantType != "" {
				assert.Equal(t, tc.wantType, rec.Header().Get("Content-Type"))
			}
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			}
			if tc.check != nil {
				tc.check(t, rec)
			}
		})
	}
}

func TestResponse_serialization_error(t *testing.T) {
	t.Parallel()

	type Resp struct {
		ID   string `json:"id" required:"true"`
		Kind string `json:"kind" enum:"a,b"`
	}

	logs := &lockedBuffer{}
	r := apikit.New(apikit.WithLogger(newTestLogger(logs)))
	apikit.Get(r, "/thing", func(_ context.Context, _ *apikit.Void) (*Resp, error) {
		return &Resp{Kind: "z"}, nil
	})

	var problem apikit.ProblemDetail
	rec := serve(t, r, httptest.NewRequest(http.MethodGet, "/thing?v=1", nil), &problem)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Response doesn't match the schema", problem.Detail)
	assert.Equal(t, "/thing?v=1", problem.Instance)
	require.Len(t, problem.Errors, 2)
	assert.Equal(t, "/id", problem.Errors[0].Path)
	assert.Equal(t, "/kind", problem.Errors[1].Path)
	assert.Contains(t, logs.String(), "request failed")
	assert.Contains(t, logs.String(), "status=500")
}
