// Package web serves the JSON API and a small embedded status page over HTTP.
// Binds to localhost by default; there is no auth.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static/index.html
var staticFS embed.FS

// staticRoot is staticFS rooted at static/, so "/" serves index.html.
func staticRoot() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // the embedded directory is fixed at build time
	}
	return sub
}
