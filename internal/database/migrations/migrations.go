package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema migration, registered from init functions in this package.
var Migrations = migrate.NewMigrations() //nolint:gochecknoglobals // -
