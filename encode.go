package apikit

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Encoder encodes response values to a wire format.
type Encoder interface {
	ContentType() string
	Encode(w io.Writer, v any) error
}

// Decoder decodes request bodies from a wire format.
type Decoder interface {
	ContentType() string
	Decode(r io.Reader, v any) error
}

// jsonCodec implements both Encoder and Decoder for JSON.
type jsonCodec struct{}

func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Encode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func (jsonCodec) Decode(r io.Reader, v any) error {
	err := json.NewDecoder(r).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// textCodec implements both Encoder and Decoder for text/plain. It handles
// string kinds; other values encode with their default format.
type textCodec struct{}

func (textCodec) ContentType() string { return "text/plain; charset=utf-8" }

func (textCodec) Encode(w io.Writer, v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		_, err := io.WriteString(w, rv.String())
		return err
	}
	_, err := fmt.Fprint(w, v)
	return err
}

func (textCodec) Decode(r io.Reader, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.String {
		return fmt.Errorf("text/plain cannot decode into %T", v)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	rv.Elem().SetString(string(b))
	return nil
}

// codecRegistry holds all registered encoders and decoders.
// Index 0 is always JSON (the default).
type codecRegistry struct {
	encoders []Encoder
	decoders []Decoder
}

// newCodecRegistry builds a registry with JSON first, text second, then any
// user-registered encoders and decoders.
func newCodecRegistry(userEncoders []Encoder, userDecoders []Decoder) *codecRegistry {
	cr := &codecRegistry{
		encoders: make([]Encoder, 0, 2+len(userEncoders)),
		decoders: make([]Decoder, 0, 2+len(userDecoders)),
	}
	cr.encoders = append(cr.encoders, jsonCodec{}, textCodec{})
	cr.encoders = append(cr.encoders, userEncoders...)
	cr.decoders = append(cr.decoders, jsonCodec{}, textCodec{})
	cr.decoders = append(cr.decoders, userDecoders...)
	return cr
}

// mediaTypeOf strips parameters from a content type.
func mediaTypeOf(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// negotiate picks an encoder based on the Accept header value. Textual
// responses default to text/plain, everything else to JSON, and the text
// codec is never chosen for non-textual values.
// Returns (default, true) for empty or */* accept values.
// Returns (nil, false) if an explicit Accept has no match.
func (cr *codecRegistry) negotiate(accept string, textual bool) (Encoder, bool) {
	def := cr.encoders[0]
	if textual {
		def = textCodec{}
	}
	if accept == "" {
		return def, true
	}

	type candidate struct {
		encoder Encoder
		quality float64
	}

	var best candidate
	best.quality = -1

	for part := range strings.SplitSeq(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}

		q := 1.0
		if qs, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(qs, 64); err == nil {
				q = parsed
			}
		}

		if q <= best.quality {
			continue
		}

		if mediaType == "*/*" {
			best = candidate{encoder: def, quality: q}
			continue
		}

		for _, enc := range cr.encoders {
			if _, isText := enc.(textCodec); isText && !textual {
				continue
			}
			if mediaTypeOf(enc.ContentType()) == mediaType {
				best = candidate{encoder: enc, quality: q}
				break
			}
		}
	}

	if best.encoder == nil {
		return nil, false
	}
	return best.encoder, true
}

// decoderFor returns the decoder matching the given Content-Type.
// Returns (JSON decoder, true) for empty content type.
// Returns (nil, false) if the content type is present but unrecognized.
func (cr *codecRegistry) decoderFor(contentType string) (Decoder, bool) {
	if contentType == "" {
		return cr.decoders[0], true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}

	for _, dec := range cr.decoders {
		if mediaTypeOf(dec.ContentType()) == mediaType {
			return dec, true
		}
	}
	return nil, false
}

// contentTypes returns the encoder content types a response of the given
// kind can be served as (for OpenAPI).
func (cr *codecRegistry) contentTypes(textual bool) []string {
	if textual {
		return []string{mediaTypeOf(textCodec{}.ContentType())}
	}
	cts := make([]string, 0, len(cr.encoders))
	for _, enc := range cr.encoders {
		if _, isText := enc.(textCodec); isText {
			continue
		}
		cts = append(cts, mediaTypeOf(enc.ContentType()))
	}
	return cts
}
