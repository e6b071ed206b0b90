package completers

import (
	"context"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/atinylittleshell/termsuggest/internal/completion"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/interp"
)

// CommandProviderID is the id of the command name provider.
const CommandProviderID = "commands"

// CommandProviderConfig holds configuration for creating a CommandProvider.
type CommandProviderConfig struct {
	// FileSystem is used to list PATH directories. Defaults to OSFileSystem.
	FileSystem completion.FileSystem

	// Env supplies PATH. Defaults to the process environment.
	Env completion.EnvSource

	// Runner optionally contributes shell aliases and functions.
	Runner *interp.Runner

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// CommandProvider completes command names: executables on PATH, shell
// aliases and shell functions.
type CommandProvider struct {
	fs     completion.FileSystem
	env    completion.EnvSource
	runner *interp.Runner
	logger *zap.Logger
}

// NewCommandProvider creates a new CommandProvider.
func NewCommandProvider(cfg CommandProviderConfig) *CommandProvider {
	fs := cfg.FileSystem
	if fs == nil {
		fs = completion.OSFileSystem{}
	}
	env := cfg.Env
	if env == nil {
		env = completion.ProcessEnv{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandProvider{fs: fs, env: env, runner: cfg.Runner, logger: logger}
}

func (p *CommandProvider) ID() string { return CommandProviderID }

func (p *CommandProvider) TriggerCharacters() []string { return nil }

func (p *CommandProvider) ShellTypes() []completion.ShellType { return nil }

// ProvideCompletions returns every known command when the cursor is at
// command position. Path-like words are left to the path provider.
func (p *CommandProvider) ProvideCompletions(ctx context.Context, value string, cursor int, _ bool) (*completion.ProviderResult, error) {
	line := value[:cursor]
	start, word := currentWord(line)
	if !atCommandPosition(line) || isPathLike(word) {
		return nil, nil
	}

	replacement := completion.ReplacementRange{Start: start, End: cursor}
	seen := make(map[string]bool)
	var items []completion.Candidate
	add := func(name string, kind completion.Kind, detail string) {
		if seen[name] {
			return
		}
		seen[name] = true
		items = append(items, completion.Candidate{
			Label:  completion.Label{Text: name},
			Kind:   kind,
			Detail: detail,
			Range:  replacement,
		})
	}

	for _, alias := range p.aliases() {
		add(alias, completion.KindAlias, "alias")
	}
	for _, fn := range p.functions() {
		add(fn, completion.KindMethod, "function")
	}

	pathEnv, _ := p.env.LookupEnv("PATH")
	for _, dir := range filepath.SplitList(pathEnv) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		entries, err := p.fs.ReadDir(dir)
		if err != nil {
			// Skip directories we can't read
			p.logger.Debug("skipping PATH entry", zap.String("dir", dir), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsFile && entry.Executable {
				add(entry.Name, completion.KindMethod, entry.Path)
			}
		}
	}

	return &completion.ProviderResult{Items: items}, nil
}

// aliases reads the runner's alias table, which mvdan/sh does not export.
func (p *CommandProvider) aliases() []string {
	if p.runner == nil {
		return nil
	}

	runnerValue := reflect.ValueOf(p.runner).Elem()
	aliasField := runnerValue.FieldByName("alias")
	if !aliasField.IsValid() || aliasField.Kind() != reflect.Map || aliasField.IsNil() {
		return nil
	}

	names := make([]string, 0, aliasField.Len())
	for _, key := range aliasField.MapKeys() {
		names = append(names, key.String())
	}
	sort.Strings(names)
	return names
}

func (p *CommandProvider) functions() []string {
	if p.runner == nil {
		return nil
	}
	names := make([]string, 0, len(p.runner.Funcs))
	for name := range p.runner.Funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
