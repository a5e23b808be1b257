package migrations

import "embed"

// FS contains embedded SQLite migrations for the web cache.
//
//go:embed *.sql
var FS embed.FS
