package main

import (
	"context"
	"log/slog"

	"github.com/bjaus/apikit"
)

func newRouter(logger *slog.Logger) *apikit.Router {
	r := apikit.New(
		apikit.WithTitle("SampleApi"),
		apikit.WithVersion("1.0.1"),
		apikit.WithLogger(logger),
		apikit.WithErrorHandler(apikit.SchemaErrorHandler(apikit.WithEnvelopeLogger(logger))),
	)

	r.Use(apikit.RequestID())
	r.Use(apikit.Logger(logger))
	r.Use(apikit.Recovery(logger))

	r.ServeDocs("/documentation", apikit.WithSwaggerUI())

	apikit.Post(r, "/login", handleLogin,
		apikit.WithSummary("Log in"),
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

// handleLogin answers with an empty body, which the declared response type
// rejects.
func handleLogin(_ context.Context, _ *loginReq) (*loginResp, error) {
	return &loginResp{}, nil
}
