package apikit_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/apikit"
	"github.com/bjaus/apikit/apitest"
)

func formRequest(t *testing.T, form *apitest.Form) *http.Request {
	t.Helper()
	body, ct := form.Encode(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", ct)
	return req
}

func TestParseFileUpload(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		form     *apitest.Form
		limits   apikit.MultipartLimits
		wantData string
		wantCode string
		wantErr  error
	}{
		"first matching file": {
			form: apitest.NewForm().
				Field("avatar", "not a file").
				File("other", "o.txt", []byte("other")).
				File("avatar", "a.png", []byte("png!")).
				File("avatar", "b.png", []byte("second")),
			wantData: "png!",
		},
		"missing": {
			form:    apitest.NewForm().File("other", "o.txt", []byte("x")),
			wantErr: apikit.ErrMissingFile,
		},
		"file too large": {
			form:     apitest.NewForm().File("avatar", "a.png", []byte("0123456789")),
			limits:   apikit.MultipartLimits{FileSize: 4},
			wantCode: apikit.CodeFileTooLarge,
		},
		"too many parts": {
			form:     apitest.NewForm().Field("a", "1").Field("b", "2").File("avatar", "a.png", []byte("x")),
			limits:   apikit.MultipartLimits{Parts: 2},
			wantCode: apikit.CodePartsLimit,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			upload, err := apikit.ParseFileUpload(formRequest(t, tc.form), "avatar", tc.limits)

			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
				assert.Contains(t, err.Error(), `"avatar"`)
			case tc.wantCode != "":
				var me *apikit.MultipartError
				require.ErrorAs(t, err, &me)
				assert.Equal(t, tc.wantCode, me.Code)
				assert.Equal(t, http.StatusRequestEntityTooLarge, me.StatusCode())
			default:
				require.NoError(t, err)
				assert.Equal(t, "a.png", upload.Filename)
				assert.Equal(t, "application/octet-stream", upload.ContentType)
				assert.Equal(t, int64(len(tc.wantData)), upload.Size)
				assert.Equal(t, tc.wantData, string(upload.Bytes()))
			}
		})
	}
}

func TestParseFileUpload_notMultipart(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	_, err := apikit.ParseFileUpload(req, "avatar", apikit.MultipartLimits{})
	require.ErrorIs(t, err, apikit.ErrNotMultipart)
}

func TestParseFileUpload_guarded(t *testing.T) {
	t.Parallel()

	var got error
	h := apikit.MultipartGuard(4)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, got = apikit.ParseFileUpload(r, "avatar", apikit.MultipartLimits{})
	}))

	form := apitest.NewForm().Field("caption", "far too long").File("avatar", "a.png", []byte("x"))
	h.ServeHTTP(httptest.NewRecorder(), formRequest(t, form))

	var me *apikit.MultipartError
	require.ErrorAs(t, got, &me)
	assert.Equal(t, apikit.CodeFieldTooLarge, me.Code)
	assert.Equal(t, "caption", me.Field)
	assert.Equal(t, int64(4), me.Limit)
}

func TestFileUpload_Open(t *testing.T) {
	t.Parallel()

	f := apikit.NewFileUpload("a.txt", "text/plain", []byte("hello"))
	rc, err := f.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))

	empty := apikit.FileUpload{Filename: "empty.txt"}
	rc, err = empty.Open()
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, data)

	unbuffered := apikit.FileUpload{Filename: "big.bin", Size: 3}
	_, err = unbuffered.Open()
	require.ErrorContains(t, err, `"big.bin" was not buffered`)
}
