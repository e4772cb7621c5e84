package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the browser UI on the provided mux. Static assets
// are served from the embedded filesystem at /static/*, and the index page
// at /.
func RegisterRoutes(mux *http.ServeMux) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, staticFS, "index.html")
	})
}
