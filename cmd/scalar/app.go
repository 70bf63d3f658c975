package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

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
	r.Use(apikit.CORS())
	r.Use(apikit.Compress(apikit.CompressConfig{MinSize: 512}))
	r.Use(apikit.Timeout(5 * time.Second))

	r.ServeDocs("/docs", apikit.WithScalar(apikit.ScalarConfig{"showToolbar": "never"}))

	apikit.Get(r, "/{$}", handleIndex, apikit.WithHidden())

	apikit.Post(r, "/login", handleLogin,
		apikit.WithSummary("Log in"),
	)
	apikit.Post(r, "/another", handleAnother,
		apikit.WithSummary("Echo a text body"),
		apikit.WithConsumes("text/html", "text/plain"),
	)

	return r
}

// UserID identifies a user.
type UserID string

// SchemaInfo registers UserID as the UserId component.
func (UserID) SchemaInfo() apikit.SchemaInfo {
	return apikit.SchemaInfo{
		Name:        "UserId",
		Description: "User identifier",
		Example:     "U234",
	}
}

// User is the profile returned on login.
type User struct {
	Name string `json:"name" default:"Unknown"`
}

// SchemaInfo registers User as a strict component.
func (User) SchemaInfo() apikit.SchemaInfo {
	return apikit.SchemaInfo{
		Name:        "User",
		Description: "User Data",
		Example:     map[string]any{"name": "Someone"},
		Strict:      true,
	}
}

type loginReq struct {
	Baz  string `query:"baz" required:"true" doc:"query string example" example:"wiiiiiiiiii"`
	Body struct {
		UserID UserID `json:"userId" default:"J1"`
	}
}

type loginResp struct {
	Baz    string `json:"baz" required:"true"`
	UserID UserID `json:"userId" default:"J1"`
	User   *User  `json:"user" required:"true"`
}

type echoResp struct {
	Status string `json:"status" enum:"ok"`
	Body   string `json:"body"`
}

func handleIndex(_ context.Context, _ *apikit.Void) (*apikit.Redirect, error) {
	return &apikit.Redirect{URL: "/docs", Status: http.StatusFound}, nil
}

func handleLogin(_ context.Context, req *loginReq) (*loginResp, error) {
	return &loginResp{
		Baz:    "asd",
		UserID: req.Body.UserID,
		User:   &User{},
	}, nil
}

func handleAnother(_ context.Context, body *string) (*echoResp, error) {
	return &echoResp{Status: "ok", Body: *body}, nil
}
