// Package migrations embeds the shop database schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
