package apikit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrMissingFile is returned by ParseFileUpload when no file part carries the
// requested field name.
var ErrMissingFile = errors.New("no such file")

// FileUpload holds a file part buffered from a multipart upload.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	data        []byte
}

// Open returns a reader for the uploaded file contents.
func (f *FileUpload) Open() (io.ReadCloser, error) {
	if f.data == nil && f.Size > 0 {
		return nil, fmt.Errorf("file %q was not buffered", f.Filename)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// Bytes returns the buffered file contents.
func (f *FileUpload) Bytes() []byte { return f.data }

// readFileUpload buffers a file part, failing with a *MultipartError when the
// part grows past the file ceiling.
func readFileUpload(p *Part) (FileUpload, error) {
	data, err := io.ReadAll(p.File)
	if err != nil {
		return FileUpload{}, err
	}
	return FileUpload{
		Filename:    p.Filename,
		ContentType: p.ContentType,
		Size:        int64(len(data)),
		data:        data,
	}, nil
}

// ParseFileUpload streams the multipart body and returns the first file part
// named fieldName. Other parts are discarded. It honors MultipartGuard.
func ParseFileUpload(r *http.Request, fieldName string, limits MultipartLimits) (*FileUpload, error) {
	pr, seq, err := openParts(r, limits)
	if err != nil {
		return nil, fmt.Errorf("form file %q: %w", fieldName, err)
	}

	var found *FileUpload
	for part, err := range seq {
		if err != nil {
			//nolint:errcheck,gosec // the part error takes precedence
			pr.Drain()
			return nil, err
		}
		if found != nil || part.Kind != PartFile || part.Name != fieldName {
			continue
		}
		upload, err := readFileUpload(part)
		if err != nil {
			//nolint:errcheck,gosec // the part error takes precedence
			pr.Drain()
			return nil, err
		}
		found = &upload
	}

	if found == nil {
		return nil, fmt.Errorf("form file %q: %w", fieldName, ErrMissingFile)
	}
	return found, nil
}
