// Command bodydebug serves a random number route and a text echo route
// for end-to-end tests.
//
// Run:
//
//	go run ./cmd/bodydebug
//
// Generate the OpenAPI spec:
//
//	go run ./cmd/bodydebug -spec                     print to stdout
//	go run ./cmd/bodydebug -spec -yaml -o openapi.yaml write YAML to file
//
// Then explore:
//
//	GET  http://localhost:3002/random                random number
//	POST http://localhost:3002/body-debug            echo a text body
//	GET  http://localhost:3002/docs                  Scalar API reference
package main

import "github.com/bjaus/apikit/internal/example"

func main() {
	example.Main(example.Config{
		Name:     "bodydebug",
		Addr:     ":3002",
		DocsPath: "/docs",
		Build:    newRouter,
	})
}
