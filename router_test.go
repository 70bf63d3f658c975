package apikit_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/apikit"
)

func TestRouter_middleware_order(t *testing.T) {
	t.Parallel()

	tag := func(name string) apikit.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Order", name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := apikit.New()
	r.Use(tag("first"), tag("second"))
	g := r.Group("/api", apikit.WithGroupMiddleware(tag("group")))
	apikit.Get(g, "/ping", func(_ context.Context, _ *apikit.Void) (*apikit.Void, error) {
		return nil, nil
	})

	rec := get(t, r, "/api/ping")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"first", "second", "group"}, rec.Header().Values("X-Order"))

	// Global middleware also runs for unmatched paths.
	rec = get(t, r, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"first", "second"}, rec.Header().Values("X-Order"))
}

func TestRouter_methods(t *testing.T) {
	t.Parallel()

	type Resp struct {
		Method string `json:"method"`
	}
	echo := func(method string) apikit.Handler[apikit.Void, Resp] {
		return func(context.Context, *apikit.Void) (*Resp, error) {
			return &Resp{Method: method}, nil
		}
	}

	r := apikit.New()
	apikit.Get(r, "/m", echo(http.MethodGet))
	apikit.Post(r, "/m", echo(http.MethodPost))
	apikit.Put(r, "/m", echo(http.MethodPut))
	apikit.Patch(r, "/m", echo(http.MethodPatch))
	apikit.Delete(r, "/m", echo(http.MethodDelete))

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			var got Resp
			rec := serve(t, r, httptest.NewRequest(method, "/m", nil), &got)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, method, got.Method)
		})
	}

	rec := serve(t, r, httptest.NewRequest(http.MethodOptions, "/m", nil), nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_handler_error(t *testing.T) {
	t.Parallel()

	r := apikit.New()
	apikit.Get(r, "/fail", func(_ context.Context, _ *apikit.Void) (*apikit.Void, error) {
		return nil, apikit.Error(http.StatusUnprocessableEntity, "bad data")
	})

	var problem apikit.ProblemDetail
	rec := serve(t, r, httptest.NewRequest(http.MethodGet, "/fail", nil), &problem)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apikit.ProblemDetail{
		Type:   "about:blank",
		Title:  "Unprocessable Entity",
		Status: http.StatusUnprocessableEntity,
		Detail: "bad data",
	}, problem)
}

func TestRouter_ListenAndServe(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	logs := &lockedBuffer{}
	r := apikit.New(apikit.WithLogger(newTestLogger(logs)), apikit.WithShutdownTimeout(time.Second))
	apikit.Get(r, "/health", func(_ context.Context, _ *apikit.Void) (*apikit.Void, error) {
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://"+addr+"/health", nil)
		if err != nil {
			return false
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Contains(t, logs.String(), "listening")
	assert.Contains(t, logs.String(), "msg=\"shutting down\" timeout=1s")
}

func TestRouter_Use_after_serving(t *testing.T) {
	t.Parallel()

	r := apikit.New()
	apikit.Get(r, "/ping", func(_ context.Context, _ *apikit.Void) (*apikit.Void, error) {
		return nil, nil
	})

	assert.Empty(t, get(t, r, "/ping").Header().Get("X-Late"))

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Late", "1")
			next.ServeHTTP(w, req)
		})
	})

	assert.Equal(t, "1", get(t, r, "/ping").Header().Get("X-Late"))
}

func TestRouter_ListenAndServe_bad_address(t *testing.T) {
	t.Parallel()

	err := apikit.New().ListenAndServe(context.Background(), "256.0.0.1:bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, http.ErrServerClosed))
}
