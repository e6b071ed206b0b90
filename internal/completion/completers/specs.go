package completers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/interp"
)

// CompletionType represents the type of completion.
type CompletionType string

const (
	// WordListCompletion represents word list based completion (-W option).
	WordListCompletion CompletionType = "W"
	// FunctionCompletion represents function based completion (-F option).
	FunctionCompletion CompletionType = "F"
)

// CompletionSpec represents a completion specification for a command.
type CompletionSpec struct {
	Command string
	Type    CompletionType
	Value   string   // function name or wordlist
	Options []string // values of -o, such as dirnames or default
}

// HasOption reports whether the spec was declared with -o option.
func (s CompletionSpec) HasOption(option string) bool {
	for _, o := range s.Options {
		if o == option {
			return true
		}
	}
	return false
}

// String renders the spec as the complete command that declares it.
func (s CompletionSpec) String() string {
	var b strings.Builder
	b.WriteString("complete")
	for _, o := range s.Options {
		b.WriteString(" -o " + o)
	}
	switch s.Type {
	case WordListCompletion:
		fmt.Fprintf(&b, " -W %q", s.Value)
	case FunctionCompletion:
		b.WriteString(" -F " + s.Value)
	}
	b.WriteString(" " + s.Command)
	return b.String()
}

// SpecRegistry stores command completion specifications.
type SpecRegistry struct {
	mu    sync.RWMutex
	specs map[string]CompletionSpec
}

// NewSpecRegistry creates a new SpecRegistry.
func NewSpecRegistry() *SpecRegistry {
	return &SpecRegistry{
		specs: make(map[string]CompletionSpec),
	}
}

// AddSpec adds or updates a completion specification.
func (r *SpecRegistry) AddSpec(spec CompletionSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Command] = spec
}

// RemoveSpec removes a completion specification.
func (r *SpecRegistry) RemoveSpec(command string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.specs, command)
}

// GetSpec retrieves a completion specification.
func (r *SpecRegistry) GetSpec(command string) (CompletionSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[command]
	return spec, ok
}

// ListSpecs returns all completion specifications sorted by command.
func (r *SpecRegistry) ListSpecs() []CompletionSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]CompletionSpec, 0, len(r.specs))
	for _, spec := range r.specs {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Command < specs[j].Command })
	return specs
}

// NewCompleteCommandHandler returns exec handler middleware that implements
// the bash complete builtin on top of registry.
func NewCompleteCommandHandler(registry *SpecRegistry) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 || args[0] != "complete" {
				return next(ctx, args)
			}
			return handleCompleteCommand(interp.HandlerCtx(ctx).Stdout, registry, args[1:])
		}
	}
}

func handleCompleteCommand(stdout io.Writer, registry *SpecRegistry, args []string) error {
	if len(args) == 0 {
		return printCompletionSpecs(stdout, registry, nil)
	}

	var (
		printMode   bool
		removeMode  bool
		hasWordList bool
		wordList    string
		function    string
		options     []string
		commands    []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-p":
			printMode = true
		case "-r":
			removeMode = true
		case "-W", "-F", "-o":
			if i+1 >= len(args) {
				return fmt.Errorf("complete: option %s requires an argument", arg)
			}
			i++
			switch arg {
			case "-W":
				hasWordList = true
				wordList = args[i]
			case "-F":
				function = args[i]
			case "-o":
				options = append(options, args[i])
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return fmt.Errorf("complete: unknown option: %s", arg)
			}
			commands = append(commands, arg)
		}
	}

	switch {
	case printMode:
		return printCompletionSpecs(stdout, registry, commands)
	case len(commands) == 0:
		return fmt.Errorf("complete: no command specified")
	case removeMode:
		for _, command := range commands {
			registry.RemoveSpec(command)
		}
		return nil
	case function != "":
		for _, command := range commands {
			registry.AddSpec(CompletionSpec{Command: command, Type: FunctionCompletion, Value: function, Options: options})
		}
		return nil
	case hasWordList:
		for _, command := range commands {
			registry.AddSpec(CompletionSpec{Command: command, Type: WordListCompletion, Value: wordList, Options: options})
		}
		return nil
	}
	return fmt.Errorf("complete: invalid usage")
}

func printCompletionSpecs(stdout io.Writer, registry *SpecRegistry, commands []string) error {
	specs := registry.ListSpecs()
	if len(commands) > 0 {
		specs = specs[:0]
		for _, command := range commands {
			if spec, ok := registry.GetSpec(command); ok {
				specs = append(specs, spec)
			}
		}
	}
	for _, spec := range specs {
		if _, err := fmt.Fprintln(stdout, spec.String()); err != nil {
			return err
		}
	}
	return nil
}
