// Package web holds the dashboard page served at "/".
package web

import "embed"

// Templates contains index.html
//
//go:embed *.html
var Templates embed.FS
