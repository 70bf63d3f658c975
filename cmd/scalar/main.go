// Command scalar serves the login schema and a text echo route with the
// Scalar API reference.
//
// Run:
//
//	go run ./cmd/scalar
//
// Generate the OpenAPI spec:
//
//	go run ./cmd/scalar -spec                        print to stdout
//	go run ./cmd/scalar -spec -yaml -o openapi.yaml  write YAML to file
//
// Then explore:
//
//	POST http://localhost:3003/login?baz=x           log in
//	POST http://localhost:3003/another               echo a text body
//	GET  http://localhost:3003/docs                  Scalar API reference
//	GET  http://localhost:3003/docs/openapi.json     OpenAPI spec
package main

import "github.com/bjaus/apikit/internal/example"

func main() {
	example.Main(example.Config{
		Name:     "scalar",
		Addr:     ":3003",
		DocsPath: "/docs",
		Build:    newRouter,
	})
}
