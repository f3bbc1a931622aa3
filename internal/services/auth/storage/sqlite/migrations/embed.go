package migrations

import "embed"

// FS contains embedded SQLite migrations for auth storage.
//
//go:embed *.sql
var FS embed.FS
