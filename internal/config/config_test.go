package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", cfg.Model.Endpoint)
	assert.Equal(t, 4096, cfg.Model.ContextTokens)
	assert.Equal(t, 3, cfg.Model.MaxAttempts)
	assert.False(t, cfg.Execute.Overwrite)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Root = "/tmp/sortme-root"
	cfg.Model.Name = "mistral:7b"
	cfg.Scan.ContentReading = true
	cfg.Execute.Preview = true

	require.NoError(t, Save(dir, cfg))
	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/sortme-root", loaded.Root)
	assert.Equal(t, "mistral:7b", loaded.Model.Name)
	assert.True(t, loaded.Scan.ContentReading)
	assert.True(t, loaded.Execute.Preview)
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := "model:\n  name: phi3\n  context_tokens: 2048\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "phi3", cfg.Model.Name)
	assert.Equal(t, 2048, cfg.Model.ContextTokens)
	assert.Equal(t, "http://localhost:11434", cfg.Model.Endpoint, "unset keys keep defaults")
}

func TestValidateBackfillsZeroValues(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default().Model.ContextTokens, cfg.Model.ContextTokens)
	assert.Equal(t, Default().Scan.Workers, cfg.Scan.Workers)
}
