// Package bash wraps mvdan.cc/sh for the pieces of the completion engine
// that need to understand or run shell code.
package bash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// RunScriptFromReader parses and runs a bash script from an io.Reader.
// The script is executed in the provided runner (not a subshell), so
// functions and completion specs it defines stay visible to later calls.
func RunScriptFromReader(ctx context.Context, runner *interp.Runner, reader io.Reader, name string) error {
	prog, err := syntax.NewParser().Parse(reader, name)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return runner.Run(ctx, prog)
}

// RunScriptFromFile parses and runs a bash script from a file.
func RunScriptFromFile(ctx context.Context, runner *interp.Runner, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return RunScriptFromReader(ctx, runner, f, filePath)
}

// RunInSubShell runs a bash command in a subshell of runner and captures
// stdout/stderr. A non-zero exit code is NOT treated as an error.
func RunInSubShell(ctx context.Context, runner *interp.Runner, command string) (string, string, int, error) {
	subShell := runner.Subshell()

	outBuf := &threadSafeBuffer{}
	errBuf := &threadSafeBuffer{}
	interp.StdIO(nil, outBuf, errBuf)(subShell) //nolint:errcheck

	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return "", "", 1, fmt.Errorf("failed to parse bash command: %w", err)
	}

	err = subShell.Run(ctx, prog)
	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return outBuf.String(), errBuf.String(), int(exitStatus), nil
		}
		return outBuf.String(), errBuf.String(), 1, err
	}
	return outBuf.String(), errBuf.String(), 0, nil
}

// threadSafeBuffer guards a bytes.Buffer; the interpreter may write to it
// from pipeline goroutines.
type threadSafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *threadSafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *threadSafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
