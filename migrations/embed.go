// Package migrations embeds the SQL schema files into the binary.
package migrations

import "embed"

// FS holds every *.up.sql file in this directory, applied in filename order
// by database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
