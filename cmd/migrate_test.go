package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/killallgit/diagram-annotator/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "annotator.db")

	out, err := run(t, "migrate", "status", "--database", dbPath)
	require.NoError(t, err)
	assert.Regexp(t, `tasks\s+pending`, out)
	assert.Regexp(t, `annotation_records\s+pending`, out)
	assert.Regexp(t, `users\s+pending`, out)

	out, err = run(t, "migrate", "up", "--dry-run", "--database", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run mode")
	assert.Contains(t, out, "would create annotation_records")

	out, err = run(t, "migrate", "status", "--database", dbPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "applied", "dry run must not touch the schema")

	out, err = run(t, "migrate", "up", "--database", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied (3 tables created)")

	out, err = run(t, "migrate", "status", "--database", dbPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "pending")
	assert.Regexp(t, `users\s+applied`, out)
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db, err := database.InitializeWithMigrations(":memory:", false)
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	require.NoError(t, migrateUp(&buf, db, true))
	assert.Contains(t, buf.String(), "No tables to create")

	buf.Reset()
	require.NoError(t, migrateUp(&buf, db, false))
	assert.Equal(t, "Migrations applied (0 tables created)\n", buf.String())

	buf.Reset()
	require.NoError(t, writeMigrationStatus(&buf, db))
	assert.Contains(t, buf.String(), "TABLE")
	assert.NotContains(t, buf.String(), "pending")
}
