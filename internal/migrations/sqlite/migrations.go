// Package migrations embeds the SQLite schema migrations for the local
// call-log store. They are applied through goose on store open.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
