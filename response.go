package apikit

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
)

// CookieSetter is optionally implemented by response types to set cookies.
type CookieSetter interface {
	Cookies() []*http.Cookie
}

// HeaderSetter is optionally implemented by response types to set response headers.
type HeaderSetter interface {
	SetHeaders(h http.Header)
}

// Redirect is returned from a handler to issue an HTTP redirect.
type Redirect struct {
	URL    string
	Status int
}

// encodeResponse writes the response to the http.ResponseWriter.
// It handles Redirect, CookieSetter, HeaderSetter, StatusCoder, and
// encoding with the negotiated encoder.
func encodeResponse(w http.ResponseWriter, r *http.Request, resp any, defaultStatus int, enc Encoder) {
	// Redirect response.
	if rd, ok := resp.(*Redirect); ok {
		status := rd.Status
		if status == 0 {
			status = http.StatusFound
		}
		http.Redirect(w, r, rd.URL, status)
		return
	}

	// Apply cookies and headers before writing status.
	if cs, ok := resp.(CookieSetter); ok {
		for _, c := range cs.Cookies() {
			http.SetCookie(w, c)
		}
	}
	if hs, ok := resp.(HeaderSetter); ok {
		hs.SetHeaders(w.Header())
	}

	status := defaultStatus

	// Let the response override the status dynamically.
	if sc, ok := resp.(StatusCoder); ok {
		status = sc.StatusCode()
	}

	w.Header().Set("Content-Type", enc.ContentType())
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort after WriteHeader
	enc.Encode(w, resp)
}

// writeErrorResponse writes an error as an RFC 9457 problem details response.
// Multipart limit failures keep their own {statusCode, code, message} body.
func writeErrorResponse(w http.ResponseWriter, err error) {
	var me *MultipartError
	if errors.As(err, &me) {
		writeJSON(w, me.Status, "application/json; charset=utf-8", me)
		return
	}

	// If the error is already a ProblemDetail, use it directly.
	var pd *ProblemDetail
	if errors.As(err, &pd) {
		writeJSON(w, pd.Status, "application/problem+json", pd)
		return
	}

	writeJSON(w, ErrorStatus(err), "application/problem+json", problemFor(err))
}

// problemFor converts any error into a ProblemDetail.
func problemFor(err error) *ProblemDetail {
	status := ErrorStatus(err)
	problem := &ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: err.Error(),
	}

	var rve *RequestValidationError
	var rse *ResponseSerializationError
	switch {
	case errors.As(err, &rve):
		problem.Detail = msgRequestMismatch
		problem.Errors = rve.Issues
	case errors.As(err, &rse):
		problem.Detail = msgResponseMismatch
		problem.Errors = rse.Issues
		problem.Instance = rse.URL
	}
	return problem
}

func writeJSON(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(v)
}
