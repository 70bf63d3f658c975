package apikit

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"time"
)

// requestCategory describes how a request type should be decoded.
type requestCategory int

const (
	catVoid     requestCategory = iota // Void: no params, no body
	catBodyOnly                        // entire struct is the body (no param tags, no Body field)
	catParams                          // has param tags but no Body field
	catMixed                           // has Body field (params from tagged fields, body from Body)
	catForm                            // has form tags (multipart/form-data binding)
	catText                            // string kind: the raw body as text
)

// classifyRequest determines how a request type should be decoded.
func classifyRequest(t reflect.Type) requestCategory {
	if t == reflect.TypeFor[Void]() {
		return catVoid
	}
	if t.Kind() == reflect.String {
		return catText
	}
	if hasFormTags(t) {
		return catForm
	}
	if hasBodyField(t) {
		return catMixed
	}
	if hasParamTags(t) || hasRawRequest(t) {
		return catParams
	}
	return catBodyOnly
}

// bindConfig carries the route settings that affect decoding.
type bindConfig struct {
	codecs *codecRegistry
	limits MultipartLimits
}

// decodeRequest creates a new Req value and populates it from the HTTP
// request. It returns the paths that were supplied, for defaults and
// required checks.
func decodeRequest[Req any](r *http.Request, cfg bindConfig) (*Req, presenceSet, error) {
	req := new(Req)
	t := reflect.TypeFor[Req]()
	set := presenceSet{}

	var err error
	switch classifyRequest(t) {
	case catVoid:

	case catText:
		var text string
		if text, err = readText(r); err == nil {
			reflect.ValueOf(req).Elem().SetString(text)
		}

	case catParams:
		err = bindParams(req, r, set)

	case catBodyOnly:
		err = decodeBody(r, req, "", set, cfg.codecs)

	case catMixed:
		if err = bindParams(req, r, set); err == nil {
			bodyPtr := reflect.ValueOf(req).Elem().FieldByName("Body").Addr().Interface()
			err = decodeBody(r, bodyPtr, "/body", set, cfg.codecs)
		}

	case catForm:
		if err = bindParams(req, r, set); err == nil {
			err = bindForm(req, r, set, cfg)
		}
	}

	if err != nil {
		return nil, nil, err
	}
	return req, set, nil
}

// bindParams binds path, query, header, and cookie values to struct fields.
// Conversion failures are collected into a *RequestValidationError.
func bindParams(target any, r *http.Request, set presenceSet) error {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	var (
		iss    Issues
		causes []error
	)

	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		// Body is decoded separately.
		if f.Name == "Body" {
			continue
		}

		field := v.Field(i)

		// Embed RawRequest: inject *http.Request.
		if f.Type == reflect.TypeFor[RawRequest]() {
			field.Set(reflect.ValueOf(RawRequest{Request: r}))
			continue
		}

		in, name := paramLocation(f)
		if in == "" {
			continue
		}

		val := paramValue(r, in, name)
		if val != "" {
			set[paramPath(in, name)] = true
		} else if in != "path" {
			val = f.Tag.Get("default")
		}
		if val == "" {
			continue
		}

		if err := setFieldValue(field, val); err != nil {
			causes = append(causes, fmt.Errorf("%w: %s: %w", paramSentinel(in), name, err))
			iss = append(iss, Issue{
				Path:    paramPath(in, name),
				Code:    CodeInvalidType,
				Message: fmt.Sprintf("expected %s", field.Type()),
				Params:  map[string]any{"received": val},
			})
		}
	}

	if len(iss) > 0 {
		return &RequestValidationError{Issues: iss, Cause: errors.Join(causes...)}
	}
	return nil
}

func paramPath(in, name string) string {
	return "/" + in + "/" + escapePointer(name)
}

func paramValue(r *http.Request, in, name string) string {
	//exhaustive:ignore
	switch in {
	case "path":
		return r.PathValue(name)
	case "query":
		return r.URL.Query().Get(name)
	case "header":
		return r.Header.Get(name)
	case "cookie":
		if c, err := r.Cookie(name); err == nil {
			return c.Value
		}
	}
	return ""
}

func paramSentinel(in string) error {
	//exhaustive:ignore
	switch in {
	case "path":
		return ErrBindPath
	case "header":
		return ErrBindHeader
	case "cookie":
		return ErrBindCookie
	default:
		return ErrBindQuery
	}
}

// setFieldValue sets a reflect.Value from a string, supporting common types.
func setFieldValue(field reflect.Value, value string) error {
	if field.Type() == reflect.TypeFor[time.Duration]() {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}

	//exhaustive:ignore
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Pointer:
		elem := reflect.New(field.Type().Elem())
		if err := setFieldValue(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
	default:
		return fmt.Errorf("unsupported type: %s", field.Type())
	}
	return nil
}

// readText reads the whole body as text.
func readText(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", bodyReadError(err)
	}
	return string(b), nil
}

// bodyReadError maps a body read failure to an HTTP error, answering 413
// when a MaxBytesReader tripped.
func bodyReadError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return Errorf(http.StatusRequestEntityTooLarge, "request body exceeds %d bytes", mbe.Limit)
	}
	return Error(http.StatusBadRequest, fmt.Errorf("%w: %w", ErrBindBody, err).Error())
}
