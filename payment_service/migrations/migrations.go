// Package migrations embeds the payment database schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
