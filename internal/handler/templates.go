// Package handler contains the HTTP handlers for the blog: server-rendered
// pages, the JSON API, and the sign-in flow. Handlers stay thin; pagination,
// validation, and provisioning live in the service layer.
package handler

import (
	"html/template"
	"path/filepath"
)

// parsePage compiles one content template together with the shared base
// layout. base.html defines the page chrome with a {{template "content" .}}
// slot; each page template fills it with {{define "content"}}. Parsing
// happens once at startup, execution on every request.
func parsePage(templateDir, page string) (*template.Template, error) {
	return template.ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, page),
	)
}
