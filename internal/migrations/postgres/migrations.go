// Package migrations embeds the Postgres schema migrations for the
// central call-log store. They are applied through goose on store open.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
