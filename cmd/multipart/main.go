// Command multipart serves a multipart upload route behind the field-size
// guard, with Swagger UI documentation.
//
// Run:
//
//	go run ./cmd/multipart
//
// Generate the OpenAPI spec:
//
//	go run ./cmd/multipart -spec                     print to stdout
//	go run ./cmd/multipart -spec -yaml -o openapi.yaml write YAML to file
//
// Then explore:
//
//	POST http://localhost:3000/testing-multi-part     echo a form upload
//	GET  http://localhost:3000/documentation          Swagger UI
//	GET  http://localhost:3000/documentation/json     OpenAPI spec
package main

import "github.com/bjaus/apikit/internal/example"

func main() {
	example.Main(example.Config{
		Name:     "multipart",
		Addr:     ":3000",
		DocsPath: "/documentation",
		Build:    newRouter,
	})
}
