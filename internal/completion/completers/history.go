package completers

import (
	"context"
	"fmt"
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/completion"
	"github.com/atinylittleshell/termsuggest/internal/history"
)

// HistoryProviderID is the id of the history provider.
const HistoryProviderID = "history"

const defaultHistoryLimit = 20

// HistoryProvider offers previously executed command lines that start with
// the typed line. It only answers requests that allow fallback results.
type HistoryProvider struct {
	manager *history.HistoryManager
	limit   int
}

// NewHistoryProvider creates a HistoryProvider returning at most limit
// lines; a non-positive limit uses the default.
func NewHistoryProvider(manager *history.HistoryManager, limit int) *HistoryProvider {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &HistoryProvider{manager: manager, limit: limit}
}

func (p *HistoryProvider) ID() string { return HistoryProviderID }

func (p *HistoryProvider) TriggerCharacters() []string { return nil }

func (p *HistoryProvider) ShellTypes() []completion.ShellType { return nil }

func (p *HistoryProvider) ProvideCompletions(_ context.Context, value string, cursor int, allowFallback bool) (*completion.ProviderResult, error) {
	line := value[:cursor]
	if !allowFallback || strings.TrimSpace(line) == "" {
		return nil, nil
	}

	commands, err := p.manager.GetRecentCommandsByPrefix(line, p.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	result := &completion.ProviderResult{}
	for _, command := range commands {
		if command == line {
			continue
		}
		result.Items = append(result.Items, completion.Candidate{
			Label:  completion.Label{Text: command},
			Kind:   completion.KindArgument,
			Detail: "history",
			Range:  completion.ReplacementRange{Start: 0, End: cursor},
		})
	}
	return result, nil
}
