package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg, "absent config is not an error")
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	content := `languages:
  - python
excludeGlobs:
  - "vendor/**"
collision: keep_all
workers: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xref.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, cfg.Languages)
	assert.Equal(t, []string{"vendor/**"}, cfg.ExcludeGlobs)
	assert.Equal(t, "keep_all", cfg.Collision)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xref.yaml"), []byte(":\tnot yaml"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")
}
