package main

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/bjaus/apikit"
)

func newRouter(logger *slog.Logger) *apikit.Router {
	r := apikit.New(
		apikit.WithTitle("SampleApi"),
		apikit.WithVersion("1.0.1"),
		apikit.WithLogger(logger),
	)

	r.Use(apikit.RequestID())
	r.Use(apikit.Logger(logger))
	r.Use(apikit.Recovery(logger))

	r.ServeDocs("/docs", apikit.WithScalar(apikit.ScalarConfig{
		"showDeveloperTools": "never",
		"defaultHttpClient": map[string]string{
			"clientKey": "fetch",
			"targetKey": "node",
		},
	}))

	apikit.Get(r, "/random", handleRandom,
		apikit.WithSummary("Random number"),
	)
	apikit.Post(r, "/body-debug", handleBodyDebug,
		apikit.WithSummary("Echo a text body"),
		apikit.WithConsumes("text/html", "text/plain"),
	)

	return r
}

type randomResp struct {
	Number float64 `json:"number"`
}

type echoResp struct {
	Status string `json:"status" enum:"ok"`
	Body   string `json:"body"`
}

func handleRandom(_ context.Context, _ *apikit.Void) (*randomResp, error) {
	//nolint:gosec // not security sensitive
	return &randomResp{Number: rand.Float64()}, nil
}

func handleBodyDebug(_ context.Context, body *string) (*echoResp, error) {
	return &echoResp{Status: "ok", Body: *body}, nil
}
