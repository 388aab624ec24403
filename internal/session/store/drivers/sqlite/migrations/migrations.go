// Package migrations embeds the SQL migration files for the local session
// store so the binary carries its own schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
