// Package view holds the console's server-rendered pages.
package view

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every page. Each page template is named after its file and
// wraps itself in the shared "header" and "footer" blocks.
func Templates() (*template.Template, error) {
	return template.New("console").ParseFS(files, "templates/*.html")
}

func MustTemplates() *template.Template {
	return template.Must(Templates())
}
