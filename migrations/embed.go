// Package migrations embeds the goose SQL migrations for the Postgres marker
// catalog so tests and server bootstrap can apply them without a filesystem.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
