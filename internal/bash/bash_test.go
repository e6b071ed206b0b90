package bash

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/interp"
)

func TestWordPositionAt(t *testing.T) {
	tests := []struct {
		line string
		want WordPosition
	}{
		{"", PositionCommand},
		{"gi", PositionCommand},
		{"git", PositionCommand},
		{"git ", PositionArgument},
		{"git che", PositionArgument},
		{"FOO=1 ", PositionCommand},
		{"FOO=1 gi", PositionCommand},
		{"ls | gr", PositionCommand},
		{"ls |", PositionCommand},
		{"ls && ", PositionCommand},
		{"ls; ", PositionCommand},
		{"ls;", PositionCommand},
		{"ls | grep foo", PositionArgument},
		{`echo "abc`, PositionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, WordPositionAt(tt.line))
		})
	}
}

func TestRunInSubShell(t *testing.T) {
	runner, err := interp.New()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, RunScriptFromReader(ctx, runner, strings.NewReader("greet() { echo \"hi $1\"; }"), "rc"))

	stdout, stderr, code, err := RunInSubShell(ctx, runner, "greet there")
	require.NoError(t, err)
	assert.Equal(t, "hi there\n", stdout)
	assert.Empty(t, stderr)
	assert.Equal(t, 0, code)

	_, _, code, err = RunInSubShell(ctx, runner, "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	_, _, _, err = RunInSubShell(ctx, runner, "if then")
	assert.Error(t, err)
}

func TestRunScriptFromFileMissing(t *testing.T) {
	runner, err := interp.New()
	require.NoError(t, err)
	assert.Error(t, RunScriptFromFile(context.Background(), runner, t.TempDir()+"/missing.sh"))
}
