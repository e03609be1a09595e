// Package migrations embeds the goose SQL migration scripts applied by
// internal/store at startup ("subsequent schema migrations are
// applied idempotently from embedded migration scripts").
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
