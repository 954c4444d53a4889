// Package migrations embeds the SQL schema for the blob database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
