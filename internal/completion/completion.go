// Package completion provides the terminal completion engine: the candidate
// data model, the provider registry, the provider aggregation service and the
// filesystem-backed resource resolver.
package completion

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a provider produces a candidate whose
// replacement range does not fit the prompt.
var ErrInvalidRange = errors.New("invalid replacement range")

// Kind classifies a completion candidate. The kind participates in ranking
// and decides how a candidate is accepted.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
	KindSymbolicLinkFile
	KindSymbolicLinkFolder
	KindMethod
	KindAlias
	KindArgument
	KindOption
	KindOptionValue
	KindFlag
	KindCommit
	KindBranch
	KindTag
	KindStash
	KindRemote
	KindPullRequest
	KindPullRequestDone
	KindInlineSuggestion
	KindInlineSuggestionAlwaysOnTop
)

var kindNames = map[Kind]string{
	KindFile:                        "File",
	KindFolder:                      "Folder",
	KindSymbolicLinkFile:            "SymbolicLinkFile",
	KindSymbolicLinkFolder:          "SymbolicLinkFolder",
	KindMethod:                      "Method",
	KindAlias:                       "Alias",
	KindArgument:                    "Argument",
	KindOption:                      "Option",
	KindOptionValue:                 "OptionValue",
	KindFlag:                        "Flag",
	KindCommit:                      "Commit",
	KindBranch:                      "Branch",
	KindTag:                         "Tag",
	KindStash:                       "Stash",
	KindRemote:                      "Remote",
	KindPullRequest:                 "PullRequest",
	KindPullRequestDone:             "PullRequestDone",
	KindInlineSuggestion:            "InlineSuggestion",
	KindInlineSuggestionAlwaysOnTop: "InlineSuggestionAlwaysOnTop",
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsResource reports whether the kind refers to a filesystem entry.
func (k Kind) IsResource() bool {
	switch k {
	case KindFile, KindFolder, KindSymbolicLinkFile, KindSymbolicLinkFolder:
		return true
	}
	return false
}

// IsFolderLike reports whether accepting a candidate of this kind should
// leave the cursor inside the path so completion can continue.
func (k Kind) IsFolderLike() bool {
	return k == KindFolder || k == KindSymbolicLinkFolder
}

// Label is the text a candidate inserts, with an optional description
// shown alongside it.
type Label struct {
	Text        string
	Description string
}

// ReplacementRange is the [Start, End) byte range of the prompt that a
// candidate replaces when accepted.
type ReplacementRange struct {
	Start int
	End   int
}

// Len returns the width of the range.
func (r ReplacementRange) Len() int {
	return r.End - r.Start
}

// Candidate is a single completion suggestion produced by a provider.
type Candidate struct {
	Label         Label
	Kind          Kind
	Detail        string
	Documentation string
	Range         ReplacementRange
	// Provider is the id of the provider that produced the candidate.
	Provider string
	// IsFileOverride marks candidates that should be treated as files even
	// though their kind says otherwise.
	IsFileOverride bool
}

// Validate checks the replacement range against the prompt length.
// A failure indicates a provider bug rather than a runtime condition.
func (c Candidate) Validate(promptLen int) error {
	if c.Range.Start < 0 || c.Range.Start > c.Range.End || c.Range.End > promptLen {
		return fmt.Errorf("candidate %q from provider %q: %w [%d,%d] for prompt of length %d",
			c.Label.Text, c.Provider, ErrInvalidRange, c.Range.Start, c.Range.End, promptLen)
	}
	return nil
}

// ShellType identifies the dialect of the active shell.
type ShellType string

const (
	ShellBash          ShellType = "bash"
	ShellZsh           ShellType = "zsh"
	ShellFish          ShellType = "fish"
	ShellSh            ShellType = "sh"
	ShellPowerShell    ShellType = "pwsh"
	ShellCommandPrompt ShellType = "cmd"
	ShellGitBash       ShellType = "gitbash"
	ShellPython        ShellType = "python"
)

// IsPosix reports whether the shell follows POSIX quoting rules.
func (s ShellType) IsPosix() bool {
	return s != ShellPowerShell && s != ShellCommandPrompt
}

// ResourceOptions asks the aggregator to add filesystem candidates for the
// word under the cursor.
type ResourceOptions struct {
	// Cwd is the directory relative words are anchored at.
	Cwd string
	// PathSeparator is '/' or '\\'.
	PathSeparator   byte
	ShowFiles       bool
	ShowDirectories bool
	// GlobPattern optionally filters file names.
	GlobPattern string
}

// ProviderResult is what a provider returns. When ResourceOptions is nil the
// result is a plain list of items.
type ProviderResult struct {
	Items           []Candidate
	ResourceOptions *ResourceOptions
}

// Provider supplies completion candidates for a prompt.
type Provider interface {
	// ID uniquely identifies the provider, it is also the key used by the
	// provider enablement configuration.
	ID() string

	// TriggerCharacters returns the characters that request completions from
	// this provider as soon as they are typed.
	TriggerCharacters() []string

	// ShellTypes returns the shells the provider applies to, or nil when it
	// applies to every shell.
	ShellTypes() []ShellType

	// ProvideCompletions returns candidates for value with the cursor at
	// cursor. Returning a nil result contributes nothing.
	ProvideCompletions(ctx context.Context, value string, cursor int, allowFallback bool) (*ProviderResult, error)
}

// ResolvedDetail is the lazily computed extra information for a candidate.
type ResolvedDetail struct {
	Detail        string
	Documentation string
}

// ItemResolver is implemented by providers that can compute details for a
// candidate on demand.
type ItemResolver interface {
	ResolveCompletionItem(ctx context.Context, candidate Candidate) (ResolvedDetail, error)
}
