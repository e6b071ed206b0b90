package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathsHonorDataDirOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv(DataDirEnv, dir)
	ResetPaths()
	t.Cleanup(ResetPaths)

	assert.Equal(t, dir, DataDir())
	assert.Equal(t, filepath.Join(dir, "termsuggest.log"), LogFile())
	assert.Equal(t, filepath.Join(dir, "history.db"), HistoryFile())
	assert.Equal(t, filepath.Join(dir, "config.yaml"), ConfigFile())
	assert.DirExists(t, dir)
}
