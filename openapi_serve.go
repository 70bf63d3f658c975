package apikit

import (
	"bytes"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ServeSpec registers a GET handler at the given path that serves
// the OpenAPI spec as JSON. Responses carry an ETag.
func (r *Router) ServeSpec(pattern string) {
	r.mux.Handle("GET "+pattern, ETag()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, "application/json", r.Spec())
	})))
}

// ServeSpecYAML registers a GET handler at the given path that serves
// the OpenAPI spec as YAML. Responses carry an ETag.
func (r *Router) ServeSpecYAML(pattern string) {
	r.mux.Handle("GET "+pattern, ETag()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		if err := r.WriteSpecYAML(&buf); err != nil {
			writeErrorResponse(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		//nolint:errcheck,gosec // best-effort write
		buf.WriteTo(w)
	})))
}

// WriteSpec writes the OpenAPI spec as indented JSON to w.
func (r *Router) WriteSpec(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Spec())
}

// WriteSpecYAML writes the OpenAPI spec as YAML to w. Keys keep the order
// and names of the JSON document.
func (r *Router) WriteSpecYAML(w io.Writer) error {
	raw, err := json.Marshal(r.Spec())
	if err != nil {
		return err
	}

	// JSON is a subset of YAML; decoding into a node keeps key order.
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle clears the flow styles inherited from the JSON source.
func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
