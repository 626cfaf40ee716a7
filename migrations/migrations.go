// Package migrations embeds the SQL schema migrations so the server can
// bring the database up to date at startup without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
