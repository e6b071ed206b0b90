package session

import (
	"errors"
	"regexp"
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/completion"
	"github.com/atinylittleshell/termsuggest/internal/completion/ranking"
	"github.com/atinylittleshell/termsuggest/internal/config"
	"github.com/atinylittleshell/termsuggest/internal/prompt"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"
)

var fileExtension = regexp.MustCompile(`\.[^.]+$`)

// ErrNoPrompt is returned by Accept before the first Sync.
var ErrNoPrompt = errors.New("no prompt state to complete")

// Accept computes the edits that replace the word being completed with
// item's label, dismisses the list and reports the edits to OnAccept.
// When respectRunOnEnter is set the runOnEnter setting may append a submit.
func (s *Session) Accept(item ranking.Item, respectRunOnEnter bool) (prompt.EditSequence, error) {
	s.mu.Lock()
	if !s.hasPrompt {
		s.mu.Unlock()
		return nil, ErrNoPrompt
	}

	edits := s.editsFor(s.prompt, item.Candidate, respectRunOnEnter)
	s.suppressed = true
	events := s.hideLocked()
	s.mu.Unlock()

	s.logger.Debug("accepted completion",
		zap.String("label", item.Candidate.Label.Text),
		zap.String("provider", item.Candidate.Provider),
		zap.String("edits", edits.String()))

	s.emit(events)
	if s.onAccept != nil {
		s.onAccept(edits)
	}
	return edits, nil
}

func (s *Session) editsFor(state prompt.State, candidate completion.Candidate, respectRunOnEnter bool) prompt.EditSequence {
	cursor := state.CursorIndex
	start := max(0, min(candidate.Range.Start, cursor))
	replacementText := state.Value[start:cursor]
	rightSide := rightSideWord(state)

	completionText := candidate.Label.Text
	if (candidate.Kind.IsResource() || candidate.IsFileOverride) && s.shellType.IsPosix() {
		completionText = escapeSpaces(completionText)
	}

	runOnEnter := respectRunOnEnter && s.runOnEnter(replacementText, completionText)

	commonGraphemes, commonBytes := commonPrefix(replacementText, completionText)
	completionSuffix := completionText[commonBytes:]

	var edits prompt.EditSequence
	if commonGraphemes == uniseg.GraphemeClusterCount(replacementText) &&
		completionSuffix != "" &&
		strings.HasPrefix(state.Suffix, completionSuffix) {
		// The rest of the label is already there, step over it.
		edits = edits.MoveRight(uniseg.GraphemeClusterCount(completionSuffix))
	} else {
		edits = edits.
			Backspace(uniseg.GraphemeClusterCount(replacementText) - commonGraphemes).
			DeleteForward(uniseg.GraphemeClusterCount(rightSide)).
			Insert(completionSuffix)
	}

	if s.settings.InsertTrailingSpace && !candidate.Kind.IsFolderLike() {
		edits = edits.Insert(" ")
	}
	if runOnEnter {
		edits = edits.Submit()
	}
	return edits
}

func (s *Session) runOnEnter(replacementText, completionText string) bool {
	switch s.settings.RunOnEnter {
	case config.RunOnEnterAlways:
		return true
	case config.RunOnEnterExactMatch:
		return strings.EqualFold(replacementText, completionText)
	case config.RunOnEnterExactMatchIgnoreExtension:
		return strings.EqualFold(
			fileExtension.ReplaceAllString(replacementText, ""),
			fileExtension.ReplaceAllString(completionText, ""))
	}
	return false
}

// rightSideWord returns the part of the current word that sits after the
// cursor, stopping at a space or at ghost text.
func rightSideWord(state prompt.State) string {
	cursor := state.CursorIndex
	if state.HasGhostText() && state.GhostTextIndex <= cursor {
		return ""
	}
	if len(state.Value) <= cursor+1 || (cursor > 0 && state.Value[cursor-1] == ' ') {
		return ""
	}
	end := len(state.Value)
	if state.HasGhostText() {
		end = state.GhostTextIndex
	}
	rest := state.Value[cursor:end]
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// commonPrefix returns the length of the shared prefix of a and b in
// grapheme clusters and in bytes.
func commonPrefix(a, b string) (int, int) {
	ga := uniseg.NewGraphemes(a)
	gb := uniseg.NewGraphemes(b)
	count, bytes := 0, 0
	for ga.Next() && gb.Next() {
		if ga.Str() != gb.Str() {
			break
		}
		count++
		bytes += len(ga.Str())
	}
	return count, bytes
}

// escapeSpaces escapes spaces that are not escaped already.
func escapeSpaces(s string) string {
	if !strings.Contains(s, " ") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' && (i == 0 || s[i-1] != '\\') {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
