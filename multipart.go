package apikit

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// Multipart error codes carried in MultipartError.Code.
const (
	CodeFieldTooLarge = "FIELD_TOO_LARGE"
	CodeFileTooLarge  = "FILE_TOO_LARGE"
	CodePartsLimit    = "PARTS_LIMIT"
	CodeFieldsLimit   = "FIELDS_LIMIT"
	CodeFilesLimit    = "FILES_LIMIT"
)

// Default multipart ceilings applied when a MultipartLimits field is zero.
const (
	DefaultFieldSize int64 = 1 << 20
	DefaultFileSize  int64 = 32 << 20
)

// ErrNotMultipart is returned by NewPartReader for requests whose body is not
// multipart.
var ErrNotMultipart = errors.New("request is not multipart")

// MultipartLimits bounds what a PartReader accepts. Zero sizes fall back to
// DefaultFieldSize and DefaultFileSize. Zero or negative counts are unlimited.
type MultipartLimits struct {
	FieldSize int64 // max bytes of a single field value
	FileSize  int64 // max bytes of a single file
	Fields    int   // max number of field parts
	Files     int   // max number of file parts
	Parts     int   // max number of parts of either kind
}

func (l MultipartLimits) withDefaults() MultipartLimits {
	if l.FieldSize <= 0 {
		l.FieldSize = DefaultFieldSize
	}
	if l.FileSize <= 0 {
		l.FileSize = DefaultFileSize
	}
	return l
}

// merge fills zero fields of l from fallback.
func (l MultipartLimits) merge(fallback MultipartLimits) MultipartLimits {
	if l.FieldSize == 0 {
		l.FieldSize = fallback.FieldSize
	}
	if l.FileSize == 0 {
		l.FileSize = fallback.FileSize
	}
	if l.Fields == 0 {
		l.Fields = fallback.Fields
	}
	if l.Files == 0 {
		l.Files = fallback.Files
	}
	if l.Parts == 0 {
		l.Parts = fallback.Parts
	}
	return l
}

// MultipartError is the failure reported when a multipart body breaks one of
// its limits. It serializes as {"statusCode", "code", "message"}.
type MultipartError struct {
	Status  int    `json:"statusCode"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Field is the offending part name, when known.
	Field string `json:"-"`
	// Limit is the ceiling that was exceeded.
	Limit int64 `json:"-"`
}

func (e *MultipartError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *MultipartError) StatusCode() int { return e.Status }

func fieldTooLarge(name string, limit int64) *MultipartError {
	return &MultipartError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    CodeFieldTooLarge,
		Message: fmt.Sprintf("Field %q exceeds %d bytes", name, limit),
		Field:   name,
		Limit:   limit,
	}
}

func fileTooLarge(name string, limit int64) *MultipartError {
	return &MultipartError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    CodeFileTooLarge,
		Message: "request file too large",
		Field:   name,
		Limit:   limit,
	}
}

func countLimit(code, what string, limit int) *MultipartError {
	return &MultipartError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    code,
		Message: fmt.Sprintf("reach %s limit", what),
		Limit:   int64(limit),
	}
}

// PartKind distinguishes field parts from file parts.
type PartKind int

const (
	PartField PartKind = iota
	PartFile
)

func (k PartKind) String() string {
	if k == PartFile {
		return "file"
	}
	return "field"
}

// Part is one field or file segment of a multipart body.
//
// Field parts carry their (possibly truncated) Value. File parts expose File,
// a stream that must be consumed before the next call to Next; reading past
// the file ceiling sets Truncated and fails with a *MultipartError.
type Part struct {
	Kind        PartKind
	Name        string
	Filename    string
	ContentType string
	Value       string
	Truncated   bool
	File        io.Reader
}

// PartReader iterates over the parts of a multipart request body while
// enforcing MultipartLimits.
type PartReader struct {
	mr     *multipart.Reader
	body   io.Reader
	limits MultipartLimits

	parts  int
	fields int
	files  int
	done   bool
}

// IsMultipart reports whether the request's trimmed Content-Type begins with
// "multipart/".
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.TrimSpace(r.Header.Get("Content-Type")), "multipart/")
}

// NewPartReader returns a PartReader over the request body.
func NewPartReader(r *http.Request, limits MultipartLimits) (*PartReader, error) {
	if !IsMultipart(r) {
		return nil, ErrNotMultipart
	}
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindForm, err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("%w: %w", ErrBindForm, http.ErrMissingBoundary)
	}
	return &PartReader{
		mr:     multipart.NewReader(r.Body, boundary),
		body:   r.Body,
		limits: limits.withDefaults(),
	}, nil
}

// Limits returns the effective limits of the reader.
func (pr *PartReader) Limits() MultipartLimits { return pr.limits }

// Next returns the next part, or io.EOF when the body is exhausted.
func (pr *PartReader) Next() (*Part, error) {
	if pr.done {
		return nil, io.EOF
	}

	p, err := pr.mr.NextPart()
	if errors.Is(err, io.EOF) {
		pr.done = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBindForm, err)
	}

	pr.parts++
	if pr.limits.Parts > 0 && pr.parts > pr.limits.Parts {
		return nil, countLimit(CodePartsLimit, "parts", pr.limits.Parts)
	}

	name := p.FormName()

	if p.FileName() != "" {
		pr.files++
		if pr.limits.Files > 0 && pr.files > pr.limits.Files {
			return nil, countLimit(CodeFilesLimit, "files", pr.limits.Files)
		}
		part := &Part{
			Kind:        PartFile,
			Name:        name,
			Filename:    p.FileName(),
			ContentType: p.Header.Get("Content-Type"),
		}
		part.File = &limitedFile{src: p, part: part, remaining: pr.limits.FileSize, limit: pr.limits.FileSize}
		return part, nil
	}

	pr.fields++
	if pr.limits.Fields > 0 && pr.fields > pr.limits.Fields {
		return nil, countLimit(CodeFieldsLimit, "fields", pr.limits.Fields)
	}

	// Read one byte past the ceiling to detect truncation.
	buf, err := io.ReadAll(io.LimitReader(p, pr.limits.FieldSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBindForm, name, err)
	}
	part := &Part{Kind: PartField, Name: name, ContentType: p.Header.Get("Content-Type")}
	if int64(len(buf)) > pr.limits.FieldSize {
		part.Truncated = true
		buf = buf[:pr.limits.FieldSize]
	}
	part.Value = string(buf)
	return part, nil
}

// All returns the remaining parts as a sequence. Iteration stops after the
// first error, which is yielded with a nil part.
func (pr *PartReader) All() iter.Seq2[*Part, error] {
	return func(yield func(*Part, error) bool) {
		for {
			p, err := pr.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// Drain consumes every remaining part and whatever follows the closing
// boundary, discarding file contents, so the connection can be reused.
func (pr *PartReader) Drain() error {
	if !pr.done {
		for {
			p, err := pr.mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("%w: drain: %w", ErrBindForm, err)
			}
			if _, err := io.Copy(io.Discard, p); err != nil {
				return fmt.Errorf("%w: drain: %w", ErrBindForm, err)
			}
		}
		pr.done = true
	}
	if _, err := io.Copy(io.Discard, pr.body); err != nil {
		return fmt.Errorf("%w: drain: %w", ErrBindForm, err)
	}
	return nil
}

// limitedFile streams a file part and fails once it grows past the file ceiling.
type limitedFile struct {
	src       io.Reader
	part      *Part
	remaining int64
	limit     int64
}

func (f *limitedFile) Read(b []byte) (int, error) {
	if f.remaining <= 0 {
		// Probe for a byte beyond the ceiling.
		var one [1]byte
		n, err := f.src.Read(one[:])
		if n > 0 {
			f.part.Truncated = true
			return 0, fileTooLarge(f.part.Name, f.limit)
		}
		return 0, err
	}
	if int64(len(b)) > f.remaining {
		b = b[:f.remaining]
	}
	n, err := f.src.Read(b)
	f.remaining -= int64(n)
	return n, err
}
