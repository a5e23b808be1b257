// Package static embeds the stylesheet and script served under /static/.
package static

import "embed"

// FS holds app.css and app.js at its root.
//
//go:embed *.css *.js
var FS embed.FS
