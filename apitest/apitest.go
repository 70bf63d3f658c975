// Package apitest provides typed test helpers for the apikit framework.
package apitest

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/bjaus/apikit"
)

// Client wraps an httptest.Server for convenient API testing.
type Client struct {
	Server *httptest.Server
}

// NewClient creates a test client from a router.
func NewClient(t testing.TB, r *apikit.Router) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &Client{Server: srv}
}

// Response holds a decoded API response.
type Response[T any] struct {
	Status  int
	Headers http.Header
	Body    *T
	// RawBody is the undecoded response body.
	RawBody []byte
	Raw     *http.Response
}

// Get sends a typed GET request.
func Get[Resp any](t testing.TB, c *Client, path string) *Response[Resp] {
	t.Helper()
	return do[Resp](t, c, http.MethodGet, path, nil, "")
}

// Post sends a typed POST request with a JSON body.
func Post[Req, Resp any](t testing.TB, c *Client, path string, body *Req) *Response[Resp] {
	t.Helper()
	return doJSON[Resp](t, c, http.MethodPost, path, body)
}

// Put sends a typed PUT request with a JSON body.
func Put[Req, Resp any](t testing.TB, c *Client, path string, body *Req) *Response[Resp] {
	t.Helper()
	return doJSON[Resp](t, c, http.MethodPut, path, body)
}

// Patch sends a typed PATCH request with a JSON body.
func Patch[Req, Resp any](t testing.TB, c *Client, path string, body *Req) *Response[Resp] {
	t.Helper()
	return doJSON[Resp](t, c, http.MethodPatch, path, body)
}

// Delete sends a typed DELETE request.
func Delete[Resp any](t testing.TB, c *Client, path string) *Response[Resp] {
	t.Helper()
	return do[Resp](t, c, http.MethodDelete, path, nil, "")
}

// PostText sends a POST request with a raw body of the given content type.
func PostText[Resp any](t testing.TB, c *Client, path, contentType, body string) *Response[Resp] {
	t.Helper()
	return do[Resp](t, c, http.MethodPost, path, []byte(body), contentType)
}

// PostForm sends a multipart/form-data POST request built from form.
func PostForm[Resp any](t testing.TB, c *Client, path string, form *Form) *Response[Resp] {
	t.Helper()
	body, contentType := form.Encode(t)
	return do[Resp](t, c, http.MethodPost, path, body, contentType)
}

// Form builds a multipart/form-data body. Parts are written in the order
// they are added.
type Form struct {
	parts []formPart
}

type formPart struct {
	name     string
	filename string
	content  []byte
}

// NewForm returns an empty Form.
func NewForm() *Form { return &Form{} }

// Field appends a value part.
func (f *Form) Field(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, content: []byte(value)})
	return f
}

// File appends a file part.
func (f *Form) File(name, filename string, content []byte) *Form {
	f.parts = append(f.parts, formPart{name: name, filename: filename, content: content})
	return f
}

// Encode renders the form and returns the body and its Content-Type.
func (f *Form) Encode(t testing.TB) ([]byte, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range f.parts {
		var (
			w   io.Writer
			err error
		)
		if p.filename != "" {
			w, err = mw.CreateFormFile(p.name, p.filename)
		} else {
			w, err = mw.CreateFormField(p.name)
		}
		if err != nil {
			t.Fatalf("apitest: create part %q: %v", p.name, err)
		}
		if _, err := w.Write(p.content); err != nil {
			t.Fatalf("apitest: write part %q: %v", p.name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("apitest: close multipart writer: %v", err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func doJSON[Resp any](t testing.TB, c *Client, method, path string, body any) *Response[Resp] {
	t.Helper()

	if body == nil {
		return do[Resp](t, c, method, path, nil, "")
	}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("apitest: marshal request body: %v", err)
	}
	return do[Resp](t, c, method, path, b, "application/json")
}

func do[Resp any](t testing.TB, c *Client, method, path string, body []byte, contentType string) *Response[Resp] {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("apitest: create request: %v", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("apitest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("apitest: close body: %v", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("apitest: read response body: %v", err)
	}

	result := &Response[Resp]{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		RawBody: raw,
		Raw:     resp,
	}

	if resp.StatusCode != http.StatusNoContent && len(raw) > 0 {
		var decoded Resp
		if decErr := json.Unmarshal(raw, &decoded); decErr != nil {
			return result
		}
		result.Body = &decoded
	}

	return result
}
