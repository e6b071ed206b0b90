package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/completion"
	"github.com/atinylittleshell/termsuggest/internal/completion/completers"
	"github.com/atinylittleshell/termsuggest/internal/completion/ranking"
	"github.com/atinylittleshell/termsuggest/internal/completion/session"
	"github.com/atinylittleshell/termsuggest/internal/config"
	"github.com/atinylittleshell/termsuggest/internal/history"
	"github.com/atinylittleshell/termsuggest/internal/prompt"
	"github.com/atinylittleshell/termsuggest/internal/styles"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/interp"
)

var shellTypes = []completion.ShellType{
	completion.ShellBash,
	completion.ShellZsh,
	completion.ShellFish,
	completion.ShellSh,
	completion.ShellPowerShell,
	completion.ShellCommandPrompt,
	completion.ShellGitBash,
	completion.ShellPython,
}

// engineOptions are the global command line settings.
type engineOptions struct {
	Stderr      io.Writer
	ConfigFile  string
	LogFile     string
	LogLevel    string
	Shell       string
	Cwd         string
	RCFile      string
	HistoryFile string
	BuiltinOnly bool
}

// engine wires the built-in providers, the aggregation service and a
// session that runs its requests synchronously.
type engine struct {
	settings *config.Config
	logger   *zap.Logger
	cwd      string
	specs    *completers.SpecProvider
	history  *history.HistoryManager
	session  *session.Session
}

// syncScheduler runs requests before Sync and Request return, so results
// are visible as soon as they do.
type syncScheduler struct{}

func (syncScheduler) Go(task func()) {
	task()
}

func parseShellType(s string) (completion.ShellType, error) {
	shellType := completion.ShellType(strings.ToLower(s))
	if !slices.Contains(shellTypes, shellType) {
		return "", fmt.Errorf("unknown shell %q", s)
	}
	return shellType, nil
}

func newEngine(ctx context.Context, opts engineOptions) (*engine, error) {
	shellType, err := parseShellType(opts.Shell)
	if err != nil {
		return nil, err
	}

	settings, err := config.NewLoader(nil).LoadFromFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	logLevel := settings.LogLevel
	if opts.LogLevel != "" {
		logLevel = opts.LogLevel
	}
	logger, err := initializeLogger(opts.LogFile, logLevel)
	if err != nil {
		return nil, err
	}

	cwd := opts.Cwd
	if cwd == "" {
		if cwd, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	pwd := func() string { return cwd }

	separator := byte('/')
	if shellType == completion.ShellPowerShell || shellType == completion.ShellCommandPrompt {
		separator = '\\'
	}

	e := &engine{settings: settings, logger: logger, cwd: cwd}

	e.specs, err = completers.NewSpecProvider(completers.SpecProviderConfig{Pwd: pwd, Logger: logger})
	if err != nil {
		return nil, err
	}
	if opts.RCFile != "" {
		if err := e.specs.LoadFile(ctx, opts.RCFile); err != nil {
			var exitStatus interp.ExitStatus
			if !errors.As(err, &exitStatus) {
				return nil, fmt.Errorf("failed to load %s: %w", opts.RCFile, err)
			}
			logger.Warn("rc file exited with non-zero status",
				zap.String("path", opts.RCFile), zap.Int("status", int(exitStatus)))
			if opts.Stderr != nil {
				fmt.Fprintln(opts.Stderr, styles.WARNING(fmt.Sprintf("%s exited with status %d", opts.RCFile, exitStatus)))
			}
		}
	}

	registry := completion.NewRegistry()
	registry.RegisterBuiltin(completers.NewCommandProvider(completers.CommandProviderConfig{
		Runner: e.specs.Runner(),
		Logger: logger,
	}))
	registry.RegisterBuiltin(completers.NewPathProvider(pwd, separator))

	// Specs and history come from user data and are skipped by --builtin-only.
	registry.Register(e.specs)
	if opts.HistoryFile != "" {
		e.history, err = history.NewHistoryManager(opts.HistoryFile, logger)
		if err != nil {
			return nil, err
		}
		registry.Register(completers.NewHistoryProvider(e.history, 0))
	}

	service := completion.NewService(completion.ServiceConfig{
		Registry: registry,
		Settings: settings,
		Logger:   logger,
	})
	e.session = session.New(session.Config{
		Service:      service,
		Settings:     settings,
		ShellType:    shellType,
		Capabilities: completion.Capabilities{Env: completion.ProcessEnv{}},
		SkipExternal: opts.BuiltinOnly,
		Scheduler:    syncScheduler{},
		Logger:       logger,
	})
	return e, nil
}

// complete shows the ranked candidates for state. Quick suggestions apply
// as if state had just been typed; explicit additionally invokes
// completion directly.
func (e *engine) complete(ctx context.Context, state prompt.State, explicit bool) ([]ranking.Item, error) {
	if err := e.session.Sync(ctx, state); err != nil {
		return nil, err
	}
	if explicit {
		if err := e.session.Request(ctx, true); err != nil {
			return nil, err
		}
	}
	return e.session.Items(), nil
}

// accept completes state and returns the edits for the candidate at index
// together with the resulting line.
func (e *engine) accept(ctx context.Context, state prompt.State, explicit bool, index int) (prompt.EditSequence, *prompt.Buffer, error) {
	items, err := e.complete(ctx, state, explicit)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(items) {
		return nil, nil, fmt.Errorf("no candidate at index %d, %d available", index, len(items))
	}

	edits, err := e.session.Accept(items[index], true)
	if err != nil {
		return nil, nil, err
	}
	buffer := prompt.NewBufferFromState(state)
	buffer.Apply(edits)
	return edits, buffer, nil
}

func (e *engine) Close() {
	e.session.Close()
	if e.history != nil {
		if err := e.history.Close(); err != nil {
			e.logger.Warn("failed to close history", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

func initializeLogger(path, level string) (*zap.Logger, error) {
	logLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{path}
	loggerConfig.ErrorOutputPaths = []string{path}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
