package database

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"testing"

	"lens-catalog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestSQLite(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no SQL migration files embedded")

	for _, file := range files {
		content, err := fs.ReadFile(migrationsFS, file)
		require.NoError(t, err)

		contentStr := string(content)
		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			assert.Contains(t, contentStr, directive, "migration %s", file)
		}
	}
}

func TestProductsTableHasRequiredColumns(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, "migrations/00001_create_products_table.sql")
	require.NoError(t, err)

	contentStr := string(content)
	for _, column := range []string{
		"CREATE TABLE IF NOT EXISTS products",
		"id UUID PRIMARY KEY",
		"model TEXT NOT NULL",
		"brand TEXT NOT NULL",
		"type TEXT NOT NULL",
		"focal_length TEXT NOT NULL",
		"max_aperture TEXT NOT NULL",
		"mount TEXT NOT NULL",
		"weight INTEGER NOT NULL CHECK (weight >= 1)",
		"has_stabilization BOOLEAN NOT NULL",
		"active BOOLEAN NOT NULL",
		"DROP TABLE IF EXISTS products",
	} {
		assert.Contains(t, contentStr, column)
	}
}

func TestMigrationsApplyAndRollBackOnSQLite(t *testing.T) {
	store := openTestSQLite(t)
	require.Equal(t, "sqlite3", store.Dialect())

	require.NoError(t, RunMigrations(store.SQL, store.Dialect(), zap.NewNop()))

	version, err := MigrationVersion(store.SQL, store.Dialect())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = store.SQL.Exec(`INSERT INTO products (id, model, brand, type, focal_length, max_aperture, mount, weight, has_stabilization, active)
		VALUES ('0b8f5c2e-4f5e-4a43-9d3c-1f2a3b4c5d6e', 'm', 'b', 'Zoom', '24-70mm', 'f/2.8', 'Z', 0, 0, 1)`)
	assert.Error(t, err, "weight below 1 must violate the check constraint")

	_, err = store.SQL.Exec(`INSERT INTO products (id, model, brand, type, focal_length, max_aperture, mount, weight, has_stabilization, active)
		VALUES ('0b8f5c2e-4f5e-4a43-9d3c-1f2a3b4c5d6e', 'm', 'b', 'Pancake', '24-70mm', 'f/2.8', 'Z', 500, 0, 1)`)
	assert.Error(t, err, "unknown lens types must violate the check constraint")

	require.NoError(t, ResetMigrations(store.SQL, store.Dialect()))

	var count int
	err = store.SQL.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'products'`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHealthReportsUp(t *testing.T) {
	store := openTestSQLite(t)

	health := store.Health(context.Background())
	assert.Equal(t, "up", health["status"])
	assert.Equal(t, config.DriverSQLite, health["driver"])
}

func TestHealthReportsDownAfterClose(t *testing.T) {
	store, err := OpenSQLite("file:health_closed?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	health := store.Health(context.Background())
	assert.Equal(t, "down", health["status"])
	assert.NotEmpty(t, health["error"])
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     "5432",
		User:     "lens",
		Password: "p@ss word",
		Database: "catalog",
		Schema:   "lenses",
		SSLMode:  "disable",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/catalog", u.Path)

	password, _ := u.User.Password()
	assert.Equal(t, "p@ss word", password)
	assert.Equal(t, "lenses", u.Query().Get("search_path"))
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
