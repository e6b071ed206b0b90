package completers

import (
	"context"

	"github.com/atinylittleshell/termsuggest/internal/completion"
)

// PathProviderID is the id of the path provider.
const PathProviderID = "paths"

// PathProvider asks the resource resolver for files and folders. It
// completes arguments, and command words that look like paths.
type PathProvider struct {
	pwd       func() string
	separator byte
}

// NewPathProvider creates a PathProvider anchoring relative paths at pwd().
func NewPathProvider(pwd func() string, separator byte) *PathProvider {
	if separator == 0 {
		separator = '/'
	}
	return &PathProvider{pwd: pwd, separator: separator}
}

func (p *PathProvider) ID() string { return PathProviderID }

func (p *PathProvider) TriggerCharacters() []string {
	if p.separator == '\\' {
		return []string{`\`, "/"}
	}
	return []string{"/"}
}

func (p *PathProvider) ShellTypes() []completion.ShellType { return nil }

func (p *PathProvider) ProvideCompletions(_ context.Context, value string, cursor int, _ bool) (*completion.ProviderResult, error) {
	line := value[:cursor]
	_, word := currentWord(line)
	if atCommandPosition(line) && !isPathLike(word) {
		return nil, nil
	}

	command := ""
	if words := splitWords(line); len(words) > 0 {
		command = words[0]
	}

	return &completion.ProviderResult{
		ResourceOptions: &completion.ResourceOptions{
			Cwd:             p.pwd(),
			PathSeparator:   p.separator,
			ShowFiles:       command != "cd",
			ShowDirectories: true,
		},
	}, nil
}
