// Package migrations embeds SQL migration files for the Postgres store.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
// The token {{dimensions}} is replaced with the corpus vector size.
//
//go:embed *.sql
var FS embed.FS
