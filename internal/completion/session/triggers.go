package session

import (
	"regexp"
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/bash"
	"github.com/atinylittleshell/termsuggest/internal/completion"
	"github.com/atinylittleshell/termsuggest/internal/config"
	"github.com/atinylittleshell/termsuggest/internal/prompt"
)

var (
	arrowKey          = regexp.MustCompile(`^\x1b[\[O]?[CD]$`)
	rightArrowKey     = regexp.MustCompile(`^\x1b[\[O]?C$`)
	endsWithNonSpace  = regexp.MustCompile(`\S$`)
	optionStart       = regexp.MustCompile(`\s-$`)
	endsWithSeparator = regexp.MustCompile(`[\\/]$`)
	containsSpace     = regexp.MustCompile(`\s`)
)

// shouldRequestLocked decides whether the move from prev to state starts a
// request, and for which trigger character.
func (s *Session) shouldRequestLocked(prev prompt.State, hadPrev bool, state prompt.State) (bool, string) {
	if s.pasting || s.suppressed {
		return false, ""
	}
	prefix := state.Prefix

	if !hadPrev || state.CursorIndex > prev.CursorIndex {
		if !s.visible && s.quickSuggestionsEnabled(prefix) && endsWithNonSpace.MatchString(prefix) {
			return true, ""
		}
		if !s.settings.SuggestOnTriggerCharacters {
			return false, ""
		}
		if optionStart.MatchString(prefix) || (s.filteringDirectories && endsWithSeparator.MatchString(prefix)) {
			return true, ""
		}
		for _, ch := range s.service.Registry().TriggerCharacters() {
			if strings.HasSuffix(prefix, ch) {
				return true, ch
			}
		}
		return false, ""
	}

	if state.CursorIndex < prev.CursorIndex && s.visible && s.settings.SuggestOnTriggerCharacters {
		crossed := prev.Prefix[state.CursorIndex:]
		if s.filteringDirectories && strings.ContainsAny(crossed, `\/`) {
			return true, ""
		}
		for _, ch := range s.service.Registry().TriggerCharacters() {
			if strings.Contains(crossed, ch) {
				return true, ch
			}
		}
	}
	return false, ""
}

func (s *Session) quickSuggestionsEnabled(prefix string) bool {
	qs := s.settings.QuickSuggestions
	switch s.wordPosition(prefix) {
	case bash.PositionCommand:
		return qs.Commands == config.On
	case bash.PositionArgument:
		return qs.Arguments == config.On
	}
	return qs.Unknown == config.On
}

func (s *Session) wordPosition(prefix string) bash.WordPosition {
	switch s.shellType {
	case completion.ShellBash, completion.ShellSh, completion.ShellZsh, completion.ShellGitBash:
		return bash.WordPositionAt(prefix)
	}
	if containsSpace.MatchString(strings.TrimSpace(prefix)) {
		return bash.PositionArgument
	}
	return bash.PositionCommand
}
