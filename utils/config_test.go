package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	config, err := ParseConfig([]byte("server:\n  port: \"9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9000", config.Server.Port)
	assert.Equal(t, "brainbox.sqlite", config.Sqlite.Filename)
	assert.Equal(t, 1, config.Session.Version)
	assert.Equal(t, "AtlasMaker", config.Session.StorageSlot)
	assert.Equal(t, 30*time.Minute, config.Session.IdleTimeout)
	assert.Equal(t, time.Minute, config.Session.CleanupInterval)
	assert.Equal(t, []string{"view", "io"}, config.Session.Modules)
	assert.Equal(t, DefaultColumns, config.Annotations.Columns)
}

func TestParseConfig(t *testing.T) {
	doc := `
session:
  version: 3
  idle_timeout: 90s
annotations:
  columns:
    - {type_of_binding: 2, path: "atlas.#.name", format: text, parse: text}
`
	config, err := ParseConfig([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 3, config.Session.Version)
	assert.Equal(t, 90*time.Second, config.Session.IdleTimeout)
	require.Len(t, config.Annotations.Columns, 1)
	assert.Equal(t, Column{TypeOfBinding: 2, Path: "atlas.#.name", Format: "text", Parse: "text"}, config.Annotations.Columns[0])
}

func TestParseConfigRejectsBadColumns(t *testing.T) {
	_, err := ParseConfig([]byte("annotations:\n  columns:\n    - {type_of_binding: 3, path: x}\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("annotations:\n  columns:\n    - {type_of_binding: 1}\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("server: [unclosed"))
	assert.Error(t, err)
}

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("sqlite:\n  filename: test.sqlite\n"), 0o600))

	require.NoError(t, ValidateConfigPath(path))
	assert.Error(t, ValidateConfigPath(dir))

	config, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "test.sqlite", config.Sqlite.Filename)

	_, err = NewConfig(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}
