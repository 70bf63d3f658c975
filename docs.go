package apikit

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/goccy/go-json"
)

//go:embed themes
var themesFS embed.FS

// DocsOption configures the docs UI.
type DocsOption func(*docsConfig)

type docsUI int

const (
	uiElements docsUI = iota
	uiSwagger
	uiScalar
)

// ScalarConfig is handed to the Scalar API reference as its configuration
// object, e.g. {"theme": "purple"}.
type ScalarConfig map[string]any

type docsConfig struct {
	title    string
	specURL  string
	ui       docsUI
	theme    string
	themeURL string
	scalar   ScalarConfig
}

// WithDocsTitle sets the page title for the docs UI.
func WithDocsTitle(title string) DocsOption {
	return func(c *docsConfig) {
		c.title = title
	}
}

// WithDocsSpecURL points the docs UI at a spec served elsewhere.
func WithDocsSpecURL(url string) DocsOption {
	return func(c *docsConfig) {
		c.specURL = url
	}
}

// WithSwaggerUI renders Swagger UI. The spec is served next to the page at
// <path>/json and <path>/yaml.
func WithSwaggerUI() DocsOption {
	return func(c *docsConfig) {
		c.ui = uiSwagger
	}
}

// WithScalar renders the Scalar API reference with the given configuration.
// The spec is served next to the page at <path>/openapi.json and
// <path>/openapi.yaml.
func WithScalar(cfg ScalarConfig) DocsOption {
	return func(c *docsConfig) {
		c.ui = uiScalar
		c.scalar = cfg
	}
}

// WithDocsTheme applies a bundled stylesheet to the docs UI. The only
// bundled theme is "dark".
func WithDocsTheme(name string) DocsOption {
	return func(c *docsConfig) {
		c.theme = name
	}
}

// ServeDocs serves an interactive API documentation UI at the given path.
// It renders Stoplight Elements pointing at the router's OpenAPI spec unless
// another UI is selected. It panics if the requested theme is not bundled.
func (r *Router) ServeDocs(path string, opts ...DocsOption) {
	cfg := &docsConfig{
		title: r.title,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var page string
	switch cfg.ui {
	case uiSwagger:
		page = swaggerHTML
		if cfg.specURL == "" {
			cfg.specURL = path + "/json"
			r.ServeSpec(path + "/json")
			r.ServeSpecYAML(path + "/yaml")
		}
	case uiScalar:
		page = scalarHTML
		if cfg.specURL == "" {
			cfg.specURL = path + "/openapi.json"
			r.ServeSpec(path + "/openapi.json")
			r.ServeSpecYAML(path + "/openapi.yaml")
		}
	default:
		page = elementsHTML
		if cfg.specURL == "" {
			cfg.specURL = "/openapi.json"
		}
	}

	if cfg.theme != "" {
		name := cfg.theme + ".css"
		if _, err := fs.Stat(themesFS, "themes/"+name); err != nil {
			panic(fmt.Sprintf("apikit: unknown docs theme %q", cfg.theme))
		}
		sub, err := fs.Sub(themesFS, "themes")
		if err != nil {
			panic(err)
		}
		r.Static(path+"/static", sub, Secure(docsHeaders))
		cfg.themeURL = path + "/static/" + name
	}

	tmpl := template.Must(template.New("docs").Parse(page))

	r.mux.Handle("GET "+path, Secure(docsHeaders)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		//nolint:errcheck,gosec // best-effort template render
		tmpl.Execute(w, cfg)
	})))
}

const elementsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/@stoplight/elements/styles.min.css">
  {{with .ThemeURL}}<link rel="stylesheet" href="{{.}}">{{end}}
  <script src="https://unpkg.com/@stoplight/elements/web-components.min.js"></script>
</head>
<body>
  <elements-api
    apiDescriptionUrl="{{.SpecURL}}"
    router="hash"
    layout="sidebar"
  />
</body>
</html>`

const swaggerHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
  {{with .ThemeURL}}<link rel="stylesheet" href="{{.}}">{{end}}
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: {{.SpecURL}},
      dom_id: "#swagger-ui",
      deepLinking: true
    });
  </script>
</body>
</html>`

const scalarHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  {{with .ThemeURL}}<link rel="stylesheet" href="{{.}}">{{end}}
</head>
<body>
  <script
    id="api-reference"
    data-url="{{.SpecURL}}"
    data-configuration="{{.ScalarConfig}}"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`

// Title returns the docs config title (used in the template).
func (c *docsConfig) Title() string { return c.title }

// SpecURL returns the docs config spec URL (used in the template).
func (c *docsConfig) SpecURL() string { return c.specURL }

// ThemeURL returns the stylesheet URL of the selected theme, if any.
func (c *docsConfig) ThemeURL() string { return c.themeURL }

// ScalarConfig returns the Scalar configuration as JSON.
func (c *docsConfig) ScalarConfig() string {
	if len(c.scalar) == 0 {
		return "{}"
	}
	b, err := json.Marshal(c.scalar)
	if err != nil {
		return "{}"
	}
	return string(b)
}
