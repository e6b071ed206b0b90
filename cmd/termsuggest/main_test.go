package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinylittleshell/termsuggest/internal/completion"
	"github.com/atinylittleshell/termsuggest/internal/core"
	"github.com/atinylittleshell/termsuggest/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRC = `
complete -W "add commit push" git
_greet() { COMPREPLY=(hello hi); }
complete -F _greet greet
`

// runApp runs the CLI with an isolated data directory, no history and no
// settings file unless globals say otherwise.
func runApp(t *testing.T, globals []string, args ...string) (string, error) {
	t.Helper()
	out, _, err := runAppWithStderr(t, globals, args...)
	return out, err
}

func runAppWithStderr(t *testing.T, globals []string, args ...string) (string, string, error) {
	t.Helper()
	dataDir := t.TempDir()
	t.Setenv(core.DataDirEnv, dataDir)
	core.ResetPaths()
	t.Cleanup(core.ResetPaths)

	argv := []string{"termsuggest", "--config", filepath.Join(dataDir, "missing.yaml"), "--history="}
	argv = append(argv, globals...)
	argv = append(argv, args...)

	var out, errOut bytes.Buffer
	err := newApp(&out, &errOut, false).Run(context.Background(), argv)
	return out.String(), errOut.String(), err
}

func writeRC(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "completions.bash")
	require.NoError(t, os.WriteFile(path, []byte(testRC), 0644))
	return path
}

// labelsOf extracts the label column of plain complete output.
func labelsOf(out string) []string {
	var labels []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if fields := strings.Split(line, "\t"); len(fields) >= 2 {
			labels = append(labels, fields[1])
		}
	}
	return labels
}

func TestCompletePaths(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(cwd, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "srv.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "other"), []byte("x"), 0644))

	out, err := runApp(t, []string{"--cwd", cwd}, "complete", "cat sr")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/", "srv.txt"}, labelsOf(out))
	assert.Contains(t, out, "\tFolder\t")
	assert.Contains(t, out, "\tFile\t")
}

func TestCompleteSpecs(t *testing.T) {
	rc := writeRC(t)
	cwd := t.TempDir()

	out, err := runApp(t, []string{"--cwd", cwd, "--rc", rc}, "complete", "git c")
	require.NoError(t, err)
	assert.Equal(t, []string{"commit"}, labelsOf(out))

	out, err = runApp(t, []string{"--cwd", cwd, "--rc", rc}, "complete", "--explicit", "greet ")
	require.NoError(t, err)
	assert.Subset(t, labelsOf(out), []string{"hello", "hi"})

	t.Run("builtin only", func(t *testing.T) {
		out, err := runApp(t, []string{"--cwd", cwd, "--rc", rc, "--builtin-only"}, "complete", "git c")
		require.NoError(t, err)
		assert.NotContains(t, labelsOf(out), "commit")
	})

	t.Run("limit", func(t *testing.T) {
		out, err := runApp(t, []string{"--cwd", cwd, "--rc", rc}, "complete", "--explicit", "--limit", "1", "greet ")
		require.NoError(t, err)
		assert.Len(t, labelsOf(out), 1)
	})
}

func TestAccept(t *testing.T) {
	rc := writeRC(t)
	cwd := t.TempDir()

	out, err := runApp(t, []string{"--cwd", cwd, "--rc", rc}, "accept", "--index", "0", "git co")
	require.NoError(t, err)
	assert.Equal(t, "\"mmit\"\ngit commit\nfalse\n", out)

	t.Run("settings file", func(t *testing.T) {
		settings := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(settings, []byte("insertTrailingSpace: true\nrunOnEnter: always\n"), 0644))

		out, err := runApp(t, []string{"--cwd", cwd, "--rc", rc, "--config", settings}, "accept", "--index", "0", "git co")
		require.NoError(t, err)
		assert.Equal(t, "\"mmit \\r\"\ngit commit \ntrue\n", out)
	})

	t.Run("cursor inside the word", func(t *testing.T) {
		out, err := runApp(t, []string{"--cwd", cwd, "--rc", rc}, "accept", "--cursor", "6", "--index", "0", "git coxy")
		require.NoError(t, err)
		assert.Equal(t, "\"\\x1b[3~\\x1b[3~mmit\"\ngit commit\nfalse\n", out)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := runApp(t, []string{"--cwd", cwd, "--rc", rc}, "accept", "--index", "5", "git co")
		assert.ErrorContains(t, err, "no candidate at index 5")
	})
}

func TestRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	out, err := runApp(t, []string{"--history", path, "--cwd", "/work"}, "record", "--exit-code", "2", "git", "status")
	require.NoError(t, err)
	assert.Empty(t, out)

	manager, err := history.NewHistoryManager(path, nil)
	require.NoError(t, err)
	defer manager.Close()

	commands, err := manager.GetRecentCommandsByPrefix("git", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"git status"}, commands)

	t.Run("history disabled", func(t *testing.T) {
		_, err := runApp(t, nil, "record", "ls")
		assert.ErrorContains(t, err, "history is disabled")
	})
}

func TestRenderRecorded(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderRecorded(&out, "git status", true))
	assert.Contains(t, out.String(), "recorded")
	assert.Contains(t, out.String(), "git status")

	out.Reset()
	require.NoError(t, renderRecorded(&out, "git status", false))
	assert.Empty(t, out.String())
}

func TestFailingRCFileWarns(t *testing.T) {
	rc := filepath.Join(t.TempDir(), "completions.bash")
	require.NoError(t, os.WriteFile(rc, []byte("complete -W \"add commit\" git\n(exit 3)\n"), 0644))

	out, stderr, err := runAppWithStderr(t, []string{"--cwd", t.TempDir(), "--rc", rc}, "complete", "git c")
	require.NoError(t, err)
	assert.Equal(t, []string{"commit"}, labelsOf(out))
	assert.Contains(t, stderr, "exited with status 3")
}

func TestSpecs(t *testing.T) {
	rc := writeRC(t)

	out, err := runApp(t, []string{"--rc", rc}, "specs", "git")
	require.NoError(t, err)
	assert.Equal(t, "complete -W \"add commit push\" git\n", out)

	out, err = runApp(t, []string{"--rc", rc}, "specs")
	require.NoError(t, err)
	assert.Equal(t, "complete -W \"add commit push\" git\ncomplete -F _greet greet\n", out)
}

func TestParseShellType(t *testing.T) {
	shellType, err := parseShellType("ZSH")
	require.NoError(t, err)
	assert.Equal(t, completion.ShellZsh, shellType)

	_, err = parseShellType("tcsh")
	assert.Error(t, err)

	_, err = runApp(t, []string{"--shell", "tcsh"}, "complete", "ls")
	assert.ErrorContains(t, err, `unknown shell "tcsh"`)
}

func TestInitializeLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := initializeLogger(path, "debug")
	require.NoError(t, err)
	logger.Debug("hello")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"hello"`)

	_, err = initializeLogger(path, "loud")
	assert.Error(t, err)
}
