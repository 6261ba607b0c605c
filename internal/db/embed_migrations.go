package db

import "embed"

// MigrationFS embeds the SQL migrations for the auth, tenants, website, reputation and audit schemas.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
