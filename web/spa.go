// Package web serves the prebuilt frontend bundle as a single-page application (SPA).
//
// The bundle lives on disk next to the server rather than inside the binary;
// in development it is usually absent and the Vite dev server is used instead.
package web

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// SPAHandler returns an http.Handler serving files from dir, falling back to
// index.html for any path that doesn't match a file (client-side routing).
// It reports false when dir holds no index.html, in which case nothing should be mounted.
func SPAHandler(dir string) (http.Handler, bool) {
	root := os.DirFS(dir)
	if _, err := fs.Stat(root, "index.html"); err != nil {
		return nil, false
	}

	fileServer := http.FileServer(http.FS(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if info, err := fs.Stat(root, path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		} else if err != nil && !os.IsNotExist(err) {
			slog.Debug("web: stat failed, serving index", "path", path, "error", err)
		}

		r2 := r.Clone(r.Context())
		r2.URL.Path = "/"
		fileServer.ServeHTTP(w, r2)
	}), true
}
