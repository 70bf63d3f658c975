package apikit

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FormUnmarshaler is implemented by field types that decode themselves from
// a form value. A returned error is reported as an invalid_type issue
// carrying the error text.
type FormUnmarshaler interface {
	UnmarshalForm(value string) error
}

// bindForm populates the form-tagged fields of target. Multipart and
// url-encoded bodies bind by field name; a JSON body decodes directly.
func bindForm(target any, r *http.Request, set presenceSet, cfg bindConfig) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	mt := mediaTypeOf(r.Header.Get("Content-Type"))
	switch {
	case IsMultipart(r):
		vals, files, err := readMultipart(r, cfg.limits)
		if err != nil {
			return err
		}
		return assignForm(target, vals, files, set)

	case mt == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return formError(err)
		}
		return assignForm(target, r.PostForm, nil, set)

	case mt == "application/json" || mt == "":
		return decodeJSON(r.Body, target, "", set)

	default:
		return Errorf(http.StatusUnsupportedMediaType, "unsupported content type %q", mt)
	}
}

// readMultipart buffers every part of a multipart body. On failure the rest
// of the body is drained before the error is returned.
func readMultipart(r *http.Request, limits MultipartLimits) (url.Values, map[string][]FileUpload, error) {
	pr, seq, err := openParts(r, limits)
	if err != nil {
		return nil, nil, formError(err)
	}

	vals := url.Values{}
	files := make(map[string][]FileUpload)

	for part, err := range seq {
		if err != nil {
			//nolint:errcheck,gosec // the part error takes precedence
			pr.Drain()
			return nil, nil, formError(err)
		}
		if part.Kind == PartFile {
			upload, err := readFileUpload(part)
			if err != nil {
				//nolint:errcheck,gosec // the part error takes precedence
				pr.Drain()
				return nil, nil, formError(err)
			}
			files[part.Name] = append(files[part.Name], upload)
			continue
		}
		vals.Add(part.Name, part.Value)
	}

	return vals, files, nil
}

// formError maps a multipart failure to the error the client sees.
func formError(err error) error {
	var me *MultipartError
	if errors.As(err, &me) {
		return me
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return bodyReadError(err)
	}
	return Error(http.StatusBadRequest, err.Error())
}

// assignForm sets form-tagged fields from decoded values and files.
func assignForm(target any, vals url.Values, files map[string][]FileUpload, set presenceSet) error {
	v := reflect.ValueOf(target).Elem()
	t := v.Type()

	var iss Issues
	for i := range t.NumField() {
		f := t.Field(i)
		name := formFieldName(f)
		if !f.IsExported() || name == "" || name == "-" {
			continue
		}

		fv := v.Field(i)
		path := "/" + escapePointer(name)

		switch f.Type {
		case reflect.TypeFor[FileUpload]():
			if fs := files[name]; len(fs) > 0 {
				fv.Set(reflect.ValueOf(fs[0]))
				set[path] = true
			}
			continue
		case reflect.TypeFor[*FileUpload]():
			if fs := files[name]; len(fs) > 0 {
				fv.Set(reflect.ValueOf(&fs[0]))
				set[path] = true
			}
			continue
		case reflect.TypeFor[[]FileUpload]():
			if fs := files[name]; len(fs) > 0 {
				fv.Set(reflect.ValueOf(fs))
				set[path] = true
			}
			continue
		}

		values := vals[name]
		// A file part sent under a value field's name supplies its content.
		if len(values) == 0 {
			for _, fu := range files[name] {
				values = append(values, string(fu.data))
			}
		}
		if len(values) == 0 {
			continue
		}

		if issue := assignFormValue(fv, path, values, set); issue != nil {
			iss = append(iss, *issue)
		}
	}

	if len(iss) > 0 {
		return &RequestValidationError{Issues: iss, Cause: ErrBindForm}
	}
	return nil
}

// assignFormValue decodes one field. Scalars parse as text, types
// implementing FormUnmarshaler decode themselves, and anything else is read
// as JSON. Text that is not JSON leaves the field absent.
func assignFormValue(fv reflect.Value, path string, values []string, set presenceSet) *Issue {
	if u, ok := fv.Addr().Interface().(FormUnmarshaler); ok {
		set[path] = true
		if err := u.UnmarshalForm(values[0]); err != nil {
			return &Issue{Path: path, Code: CodeInvalidType, Message: err.Error()}
		}
		set.markValue(fv, path)
		return nil
	}

	ft := fv.Type()
	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}

	if isScalarType(ft) {
		set[path] = true
		if err := setFieldValue(fv, values[0]); err != nil {
			return &Issue{
				Path:    path,
				Code:    CodeInvalidType,
				Message: fmt.Sprintf("expected %s", ft),
				Params:  map[string]any{"received": values[0]},
			}
		}
		return nil
	}

	// Repeated fields fill a slice of scalars.
	if ft.Kind() == reflect.Slice && isScalarType(ft.Elem()) &&
		(len(values) > 1 || !strings.HasPrefix(strings.TrimSpace(values[0]), "[")) {
		slice := reflect.MakeSlice(ft, len(values), len(values))
		set[path] = true
		for i, s := range values {
			if err := setFieldValue(slice.Index(i), s); err != nil {
				return &Issue{
					Path:    path + "/" + strconv.Itoa(i),
					Code:    CodeInvalidType,
					Message: fmt.Sprintf("expected %s", ft.Elem()),
					Params:  map[string]any{"received": s},
				}
			}
			set[path+"/"+strconv.Itoa(i)] = true
		}
		fv.Set(slice)
		return nil
	}

	var raw any
	if err := json.Unmarshal([]byte(values[0]), &raw); err != nil {
		return nil
	}
	set.mark(path, raw)
	if err := json.Unmarshal([]byte(values[0]), fv.Addr().Interface()); err != nil {
		issue := decodeIssue(err, raw, fv.Type(), path)
		return &issue
	}
	return nil
}
