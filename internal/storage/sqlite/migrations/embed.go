package migrations

import "embed"

// FS contains the embedded commitment log migrations.
//
//go:embed *.sql
var FS embed.FS
