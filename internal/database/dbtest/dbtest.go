// Package dbtest opens throwaway databases with the production models and migrations applied.
package dbtest

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/worldtrek/warden/internal/database"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// New returns a migrated client backed by a private in-memory SQLite database.
// The database is closed when the test ends.
func New(t testing.TB) database.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", uuid.NewString())
	sqldb, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and serializes writers
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	client, err := database.NewFromDB(t.Context(), db, zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)), true)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}
