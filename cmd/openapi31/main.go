// Command openapi31 shows OpenAPI 3.1 descriptions, examples and named
// component schemas. Its login handler deliberately answers with an empty
// body, so every call ends in a response serialization error.
//
// Run:
//
//	go run ./cmd/openapi31
//
// Generate the OpenAPI spec:
//
//	go run ./cmd/openapi31 -spec                     print to stdout
//	go run ./cmd/openapi31 -spec -yaml -o openapi.yaml write YAML to file
//
// Then explore:
//
//	POST http://localhost:3001/login?baz=x           log in
//	GET  http://localhost:3001/documentation         Swagger UI
//	GET  http://localhost:3001/documentation/json    OpenAPI spec
package main

import "github.com/bjaus/apikit/internal/example"

func main() {
	example.Main(example.Config{
		Name:     "openapi31",
		Addr:     ":3001",
		DocsPath: "/documentation",
		Build:    newRouter,
	})
}
