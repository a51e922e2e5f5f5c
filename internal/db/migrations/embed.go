package migrations

import "embed"

// FS holds the SQL migration files applied by db.Store.Migrate.
//
//go:embed *.sql
var FS embed.FS
