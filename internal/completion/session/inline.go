package session

import (
	"slices"
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/completion"
	"github.com/atinylittleshell/termsuggest/internal/config"
	"github.com/atinylittleshell/termsuggest/internal/prompt"
)

const (
	inlineKey    = "inline"
	inlineDetail = "Inline suggestion"
)

// inlineWord returns the start of the word holding the ghost text and the
// full word including it.
func inlineWord(state prompt.State) (int, string) {
	start := strings.LastIndexByte(state.Value[:state.GhostTextIndex], ' ') + 1
	return start, state.Value[start:]
}

func (s *Session) inlineEnabled(state prompt.State) bool {
	return state.HasGhostText() && s.settings.InlineSuggestion != config.InlineSuggestionOff
}

// takeInlineDuplicateLocked drops the candidate that repeats the ghost text
// and keeps its detail and documentation for the inline item.
func (s *Session) takeInlineDuplicateLocked(candidates []completion.Candidate) []completion.Candidate {
	s.inlineDetail, s.inlineDocumentation = "", ""
	if !s.inlineEnabled(s.prompt) {
		return candidates
	}
	_, label := inlineWord(s.prompt)
	i := slices.IndexFunc(candidates, func(c completion.Candidate) bool {
		return c.Label.Text == label
	})
	if i < 0 {
		return candidates
	}
	s.inlineDetail = candidates[i].Detail
	s.inlineDocumentation = candidates[i].Documentation
	return slices.Delete(slices.Clone(candidates), i, i+1)
}

// refreshInlineLocked keeps the ghost text item in the model in step with
// state.
func (s *Session) refreshInlineLocked(state prompt.State) {
	existing, ok := s.model.Get(inlineKey)

	if !s.inlineEnabled(state) {
		if ok && !existing.Invalid {
			s.model.Upsert(inlineKey, existing.Candidate, true)
		}
		return
	}

	start, label := inlineWord(state)
	detail := s.inlineDetail
	if detail == "" {
		detail = inlineDetail
	}
	kind := completion.KindInlineSuggestionAlwaysOnTop
	if s.settings.InlineSuggestion == config.InlineSuggestionAlwaysOnTopExceptExactMatch && s.typedExactMatch(state, start) {
		kind = completion.KindInlineSuggestion
	}

	candidate := completion.Candidate{
		Label:         completion.Label{Text: label},
		Kind:          kind,
		Detail:        detail,
		Documentation: s.inlineDocumentation,
		Range:         completion.ReplacementRange{Start: start, End: max(s.requestedCursor, start)},
		Provider:      "core:inline",
	}
	if ok && !existing.Invalid && existing.Candidate == candidate {
		return
	}
	s.model.Upsert(inlineKey, candidate, false)
}

// typedExactMatch reports whether the word typed so far is exactly the
// label of a candidate.
func (s *Session) typedExactMatch(state prompt.State, start int) bool {
	if state.CursorIndex <= start {
		return false
	}
	typed := state.Value[start:state.CursorIndex]
	return slices.ContainsFunc(s.candidates, func(c completion.Candidate) bool {
		return c.Label.Text == typed
	})
}
