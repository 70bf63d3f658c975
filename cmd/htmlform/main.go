// Command htmlform serves an HTML form upload route without the field-size
// guard. Oversized values are reported as schema failures with status 413.
//
// Run:
//
//	go run ./cmd/htmlform
//
// Generate the OpenAPI spec:
//
//	go run ./cmd/htmlform -spec                      print to stdout
//	go run ./cmd/htmlform -spec -yaml -o openapi.yaml write YAML to file
//
// Then explore:
//
//	POST http://localhost:5173/testing-multi-part     echo a form upload
//	GET  http://localhost:5173/documentation          Swagger UI
//	GET  http://localhost:5173/documentation/json     OpenAPI spec
package main

import "github.com/bjaus/apikit/internal/example"

func main() {
	example.Main(example.Config{
		Name:     "htmlform",
		Addr:     ":5173",
		DocsPath: "/documentation",
		Build:    newRouter,
	})
}
