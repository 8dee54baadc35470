// Package migrations embeds the versioned SQL schema of the ledger so binaries
// can migrate without a migrations directory on disk.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
