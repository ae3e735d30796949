package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsVersionedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(FS(), ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		assert.True(t, strings.HasSuffix(e.Name(), ".sql"), e.Name())
	}
}

func TestInitMigration_DefinesStageKeyAndAuditTrigger(t *testing.T) {
	b, err := fs.ReadFile(FS(), "00001_init.sql")
	require.NoError(t, err)
	body := string(b)

	assert.Contains(t, body, "-- +goose Up")
	assert.Contains(t, body, "-- +goose Down")
	assert.Contains(t, body, "PRIMARY KEY (request_id, stage_index)")
	assert.Contains(t, body, "BEFORE UPDATE OR DELETE ON request_audit_log")
	assert.Contains(t, body, "request_id   UUID NOT NULL UNIQUE")
}
