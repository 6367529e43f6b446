// Package classifier maps build artifacts to asset categories.
package classifier

import (
	"path/filepath"
	"strings"
)

// Category is the bucket an artifact's bytes are accounted under.
// Anything that is not one of the named categories is keyed by its raw extension.
type Category = string

const (
	Stylesheet Category = "css"
	Script     Category = "js"
	Image      Category = "images"
	Font       Category = "fonts"
)

// fontFaceMarker marks an SVG that carries glyph definitions rather than artwork.
const fontFaceMarker = "font-face"

var imageExtensions = map[string]bool{
	"gif":  true,
	"jpg":  true,
	"jpeg": true,
	"tiff": true,
	"png":  true,
}

var fontExtensions = map[string]bool{
	"woff":  true,
	"woff2": true,
	"eot":   true,
	"ttf":   true,
}

// Classify returns the category for an artifact. Only SVG files look at contents:
// an SVG font (one declaring font-face) is a font, any other SVG is an image.
func Classify(path string, contents []byte) Category {
	ext := Extension(path)

	switch {
	case imageExtensions[ext]:
		return Image
	case ext == "svg":
		if strings.Contains(string(contents), fontFaceMarker) {
			return Font
		}
		return Image
	case fontExtensions[ext]:
		return Font
	}

	return ext
}

// Extension returns the lower-cased extension of path without the leading dot.
// Dotfiles such as ".htaccess" have no extension.
func Extension(path string) string {
	base := filepath.Base(filepath.ToSlash(path))
	ext := filepath.Ext(base)
	if ext == base {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
