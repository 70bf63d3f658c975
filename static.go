package apikit

import (
	"io/fs"
	"net/http"
	"strings"
)

// Static serves the files of fsys under urlPath, wrapped in mw. Directories
// are never listed. The route is not part of the OpenAPI document.
func (r *Router) Static(urlPath string, fsys fs.FS, mw ...Middleware) {
	files := http.StripPrefix(urlPath, http.FileServerFS(fsys))

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		name := req.PathValue("path")
		if name == "" || strings.HasSuffix(name, "/") {
			http.NotFound(w, req)
			return
		}
		if info, err := fs.Stat(fsys, name); err == nil && info.IsDir() {
			http.NotFound(w, req)
			return
		}
		files.ServeHTTP(w, req)
	})
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}

	r.mux.Handle("GET "+urlPath+"/{path...}", h)
}
