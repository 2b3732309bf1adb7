package db

import (
	"context"
	"path/filepath"
	"testing"

	"student-manager/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets"`

	ID   int    `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteDSN(""))
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "file:data/students.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", sqliteDSN("data/students.db"))
}

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(config.DatabaseConfig{
		User: "app", Password: "pw", Host: "db", Port: "5432", DBName: "students",
	})
	assert.Equal(t, "postgres://app:pw@db:5432/students?sslmode=disable", dsn)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNew_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "students.db")

	database, err := New(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, database, (*widget)(nil)))
	require.NoError(t, CreateIndexes(ctx, database, Index{Model: (*widget)(nil), Name: "idx_widget_name", Columns: []string{"name"}}))
	// Running twice is harmless.
	require.NoError(t, RunMigrations(ctx, database, (*widget)(nil)))
	require.NoError(t, CreateIndexes(ctx, database, Index{Model: (*widget)(nil), Name: "idx_widget_name", Columns: []string{"name"}}))

	_, err = database.NewInsert().Model(&widget{Name: "gear"}).Exec(ctx)
	require.NoError(t, err)
	Close(database)

	reopened, err := New(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path})
	require.NoError(t, err)
	defer Close(reopened)

	count, err := reopened.NewSelect().Model((*widget)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "data survives reopening the file")
}
