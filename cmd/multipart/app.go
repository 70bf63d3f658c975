package main

import (
	"context"
	"log/slog"

	"github.com/bjaus/apikit"
)

// MultipartMaxSize is the largest field value or file the upload route
// accepts, in bytes.
const MultipartMaxSize = 10 << 10

func newRouter(logger *slog.Logger) *apikit.Router {
	r := apikit.New(
		apikit.WithTitle("SampleApi"),
		apikit.WithAPIDescription("Sample backend service"),
		apikit.WithVersion("1.0.0"),
		apikit.WithLogger(logger),
		apikit.WithErrorHandler(apikit.SchemaErrorHandler(apikit.WithEnvelopeLogger(logger))),
	)

	r.Use(apikit.RequestID())
	r.Use(apikit.Logger(logger))
	r.Use(apikit.Recovery(logger))
	r.Use(apikit.TrailingSlash())
	r.Use(apikit.MultipartGuard(MultipartMaxSize))

	r.ServeDocs("/documentation", apikit.WithSwaggerUI(), apikit.WithDocsTheme("dark"))

	uploads := r.Group("", apikit.WithGroupMiddleware(apikit.RateLimit(apikit.RateLimitConfig{
		Rate:  50,
		Burst: 100,
	})))

	apikit.Post(uploads, "/testing-multi-part", handleUpload,
		apikit.WithSummary("Echo a form upload"),
		apikit.WithConsumes("multipart/form-data", "application/json"),
		apikit.WithFormLimits(apikit.MultipartLimits{
			FieldSize: MultipartMaxSize,
			FileSize:  MultipartMaxSize,
		}),
	)

	return r
}

// Options is the JSON document carried by the jsonField part.
type Options struct {
	Mood []string `json:"mood" required:"true"`
}

type uploadReq struct {
	StringField string  `form:"stringField" json:"stringField" required:"true" maxLength:"10240" doc:"html"`
	JSONField   Options `form:"jsonField" json:"jsonField" default:"{\"mood\":[]}" doc:"Options"`
}

type uploadResp struct {
	Status string    `json:"status" enum:"ok"`
	Body   uploadReq `json:"body"`
}

func handleUpload(_ context.Context, req *uploadReq) (*uploadResp, error) {
	return &uploadResp{Status: "ok", Body: *req}, nil
}
