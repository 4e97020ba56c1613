// Package web embeds the dashboard templates and static assets.
package web

import "embed"

// TemplatesFS holds the HTML templates rendered by the HTTP server.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and script served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
