// Package migrations embeds the verification engine's SQL schema so
// db.Migrate and dbtest can apply it without a filesystem dependency at
// runtime.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
