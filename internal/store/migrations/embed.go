package migrations

import "embed"

// FS contains the embedded puzzle store schema.
//
//go:embed *.sql
var FS embed.FS
