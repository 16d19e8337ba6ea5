// Package public embeds the studio's static assets.
package public

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var static embed.FS

// StaticFS exposes the stylesheet and other files under static/ rooted at
// that directory, the layout the /assets/ route serves.
func StaticFS() (fs.FS, error) {
	return fs.Sub(static, "static")
}
