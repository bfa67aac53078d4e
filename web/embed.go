package web

import "embed"

// Templates embeds the printable HTML templates.
//
//go:embed templates/*.html
var Templates embed.FS
