package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/bjaus/apikit"
)

// MultipartMaxSize is the longest html value the form route accepts, in bytes.
const MultipartMaxSize = 10 << 10

// errParsing is reported for an anotherField value that is not an Options
// document.
var errParsing = errors.New("parsing error")

func newRouter(logger *slog.Logger) *apikit.Router {
	r := apikit.New(
		apikit.WithTitle("SampleApi"),
		apikit.WithAPIDescription("Sample backend service"),
		apikit.WithVersion("1.0.0"),
		apikit.WithLogger(logger),
		apikit.WithErrorHandler(apikit.SchemaErrorHandler(
			apikit.WithTooBigStatus(http.StatusRequestEntityTooLarge),
			apikit.WithEnvelopeLogger(logger),
		)),
		// Fields are cut at three times the schema limit so an oversized
		// value still reaches validation and fails as too_big.
		apikit.WithMultipartLimits(apikit.MultipartLimits{
			FieldSize: MultipartMaxSize * 3,
			FileSize:  MultipartMaxSize,
		}),
	)

	r.Use(apikit.RequestID())
	r.Use(apikit.Logger(logger))
	r.Use(apikit.Recovery(logger))
	r.Use(apikit.BodyLimit(1 << 20))

	r.ServeDocs("/documentation", apikit.WithSwaggerUI(), apikit.WithDocsTheme("dark"))

	apikit.Post(r, "/testing-multi-part", handleForm,
		apikit.WithSummary("Echo an HTML form"),
		apikit.WithConsumes("multipart/form-data"),
	)

	return r
}

// Options is the JSON document carried by the anotherField part.
type Options struct {
	Mood []string `json:"mood" required:"true"`
}

// UnmarshalForm decodes the part value as JSON.
func (o *Options) UnmarshalForm(value string) error {
	if err := json.Unmarshal([]byte(value), o); err != nil {
		return errParsing
	}
	return nil
}

type formReq struct {
	HTML         string  `form:"html" json:"html" required:"true" maxLength:"10240" doc:"html"`
	AnotherField Options `form:"anotherField" json:"anotherField" default:"{\"mood\":[]}" doc:"Options"`
}

type formResp struct {
	Status string  `json:"status" enum:"ok"`
	Body   formReq `json:"body"`
}

func handleForm(_ context.Context, req *formReq) (*formResp, error) {
	return &formResp{Status: "ok", Body: *req}, nil
}
