package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader(nil)
	assert.NotNil(t, loader)
}

func TestLoader_LoadFromBytes_Empty(t *testing.T) {
	loader := NewLoader(nil)
	cfg, err := loader.LoadFromBytes([]byte(""))

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_LoadFromBytes_Overrides(t *testing.T) {
	source := `
providers:
  history: false
cdPath: relative
quickSuggestions:
  arguments: off
runOnEnter: exactMatchIgnoreExtension
insertTrailingSpace: true
inlineSuggestion: alwaysOnTop
logLevel: debug
`
	loader := NewLoader(nil)
	cfg, err := loader.LoadFromBytes([]byte(source))

	require.NoError(t, err)
	assert.False(t, cfg.ProviderEnabled("history"))
	assert.True(t, cfg.ProviderEnabled("commands"))
	assert.Equal(t, CdPathRelative, cfg.CdPath)
	assert.Equal(t, On, cfg.QuickSuggestions.Commands)
	assert.Equal(t, Off, cfg.QuickSuggestions.Arguments)
	assert.Equal(t, RunOnEnterExactMatchIgnoreExtension, cfg.RunOnEnter)
	assert.True(t, cfg.InsertTrailingSpace)
	assert.Equal(t, InlineSuggestionAlwaysOnTop, cfg.InlineSuggestion)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoader_LoadFromBytes_Invalid(t *testing.T) {
	loader := NewLoader(nil)

	_, err := loader.LoadFromBytes([]byte("cdPath: [unterminated"))
	assert.Error(t, err)

	_, err = loader.LoadFromBytes([]byte("runOnEnter: sometimes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runOnEnter")
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("cdPath: off\n"), 0644))

	loader := NewLoader(nil)
	cfg, err := loader.LoadFromFile(configPath)

	require.NoError(t, err)
	assert.Equal(t, CdPathOff, cfg.CdPath)
}

func TestLoader_LoadFromFile_Missing(t *testing.T) {
	loader := NewLoader(nil)
	cfg, err := loader.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
