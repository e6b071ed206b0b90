package completers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/atinylittleshell/termsuggest/internal/bash"
	"github.com/atinylittleshell/termsuggest/internal/completion"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// SpecProviderID is the id of the completion spec provider.
const SpecProviderID = "specs"

// SpecProviderConfig holds configuration for creating a SpecProvider.
type SpecProviderConfig struct {
	// Registry defaults to an empty SpecRegistry.
	Registry *SpecRegistry

	// Pwd anchors directory fallbacks. Defaults to returning "".
	Pwd func() string

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// SpecProvider completes arguments of commands that have a bash completion
// spec, declared with the complete builtin in scripts loaded by LoadScript.
type SpecProvider struct {
	registry *SpecRegistry
	pwd      func() string
	logger   *zap.Logger

	// mu guards runner; scripts mutate it and completions copy it.
	mu     sync.Mutex
	runner *interp.Runner
}

// NewSpecProvider creates a SpecProvider with its own shell interpreter.
func NewSpecProvider(cfg SpecProviderConfig) (*SpecProvider, error) {
	registry := cfg.Registry
	if registry == nil {
		registry = NewSpecRegistry()
	}
	pwd := cfg.Pwd
	if pwd == nil {
		pwd = func() string { return "" }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	runner, err := interp.New(
		interp.StdIO(nil, io.Discard, io.Discard),
		interp.ExecHandlers(NewCompleteCommandHandler(registry)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create shell interpreter: %w", err)
	}

	return &SpecProvider{
		registry: registry,
		pwd:      pwd,
		logger:   logger,
		runner:   runner,
	}, nil
}

// Registry returns the specs the provider completes from.
func (p *SpecProvider) Registry() *SpecRegistry {
	return p.registry
}

// Runner returns the interpreter scripts are loaded into. Its aliases and
// functions can back a CommandProvider; it must not be used while a script
// is loading.
func (p *SpecProvider) Runner() *interp.Runner {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runner
}

// LoadScript runs a bash script, typically an rc file, so its completion
// functions and complete declarations become available.
func (p *SpecProvider) LoadScript(ctx context.Context, r io.Reader, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return bash.RunScriptFromReader(ctx, p.runner, r, name)
}

// LoadFile runs the bash script at path.
func (p *SpecProvider) LoadFile(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return bash.RunScriptFromFile(ctx, p.runner, path)
}

// Describe returns the complete declarations for commands, or for every
// command when none are given, in the form complete -p prints them.
func (p *SpecProvider) Describe(ctx context.Context, commands ...string) (string, error) {
	script := "complete -p"
	if len(commands) > 0 {
		script += " " + shellquote.Join(commands...)
	}
	stdout, stderr, code, err := bash.RunInSubShell(ctx, p.Runner(), script)
	if err != nil {
		return "", fmt.Errorf("failed to list completion specs: %w", err)
	}
	if code != 0 {
		return "", fmt.Errorf("complete -p exited with status %d: %s", code, strings.TrimSpace(stderr))
	}
	return stdout, nil
}

func (p *SpecProvider) ID() string { return SpecProviderID }

func (p *SpecProvider) TriggerCharacters() []string { return nil }

func (p *SpecProvider) ShellTypes() []completion.ShellType {
	return []completion.ShellType{completion.ShellBash, completion.ShellSh, completion.ShellZsh, completion.ShellGitBash}
}

func (p *SpecProvider) ProvideCompletions(ctx context.Context, value string, cursor int, _ bool) (*completion.ProviderResult, error) {
	line := value[:cursor]
	words := splitWords(line)
	if len(words) < 2 {
		return nil, nil
	}
	spec, ok := p.registry.GetSpec(words[0])
	if !ok {
		return nil, nil
	}

	var results []string
	switch spec.Type {
	case WordListCompletion:
		results = wordListCompletions(spec.Value, words[len(words)-1])
	case FunctionCompletion:
		var err error
		results, err = p.runFunction(ctx, spec.Value, line, words)
		if err != nil {
			return nil, fmt.Errorf("completion function %s: %w", spec.Value, err)
		}
	default:
		return nil, fmt.Errorf("unsupported completion type: %s", spec.Type)
	}

	start, _ := currentWord(line)
	kind := completion.KindArgument
	if spec.HasOption("filenames") {
		kind = completion.KindFile
	}

	result := &completion.ProviderResult{}
	for _, r := range results {
		result.Items = append(result.Items, completion.Candidate{
			Label:  completion.Label{Text: r},
			Kind:   kind,
			Detail: spec.Command,
			Range:  completion.ReplacementRange{Start: start, End: cursor},
		})
	}

	// bash falls back to directory or default completion when a spec
	// generates no matches.
	if len(result.Items) == 0 {
		switch {
		case spec.HasOption("dirnames"):
			result.ResourceOptions = &completion.ResourceOptions{Cwd: p.pwd(), ShowDirectories: true}
		case spec.HasOption("default"), spec.HasOption("bashdefault"):
			result.ResourceOptions = &completion.ResourceOptions{Cwd: p.pwd(), ShowFiles: true, ShowDirectories: true}
		}
	}
	return result, nil
}

func wordListCompletions(wordList, word string) []string {
	var completions []string
	for _, w := range strings.Fields(wordList) {
		if strings.HasPrefix(w, word) {
			completions = append(completions, w)
		}
	}
	return completions
}

// runFunction calls a bash completion function the way bash does: with
// the COMP_* variables set and the command, current word and previous word
// as arguments. The function runs in a subshell and its COMPREPLY is
// returned.
func (p *SpecProvider) runFunction(ctx context.Context, name, line string, words []string) ([]string, error) {
	current := words[len(words)-1]
	previous := words[len(words)-2]

	script := fmt.Sprintf("COMP_LINE=%s\nCOMP_POINT=%d\nCOMP_WORDS=(%s)\nCOMP_CWORD=%d\nCOMPREPLY=()\n%s %s %s %s\n",
		shellquote.Join(line),
		len(line),
		shellquote.Join(words...),
		len(words)-1,
		name,
		shellquote.Join(words[0]),
		shellquote.Join(current),
		shellquote.Join(previous),
	)
	file, err := syntax.NewParser().Parse(strings.NewReader(script), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse completion script: %w", err)
	}

	p.mu.Lock()
	subShell := p.runner.Subshell()
	p.mu.Unlock()

	if err := subShell.Run(ctx, file); err != nil {
		var exitStatus interp.ExitStatus
		if !errors.As(err, &exitStatus) {
			return nil, err
		}
		p.logger.Debug("completion function exited with non-zero status",
			zap.String("function", name), zap.Int("status", int(exitStatus)))
	}

	compreply, ok := subShell.Vars["COMPREPLY"]
	if !ok || compreply.Kind != expand.Indexed {
		return nil, nil
	}

	results := make([]string, 0, len(compreply.List))
	for _, r := range compreply.List {
		if r != "" {
			results = append(results, r)
		}
	}
	return results, nil
}
