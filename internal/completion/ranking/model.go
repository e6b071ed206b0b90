// Package ranking filters completion candidates against the text typed so
// far and orders them for presentation.
package ranking

import (
	"slices"
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/completion"
)

// LineContext is the text before the cursor together with how many
// characters were typed since the candidates were requested.
type LineContext struct {
	LeadingLineContent  string
	CharacterCountDelta int
}

// Options configures a Model.
type Options struct {
	// Windows selects Windows path and file extension conventions.
	Windows bool
	// Scorer defaults to FuzzyScorer.
	Scorer Scorer
}

type refilter int

const (
	refilterNothing refilter = iota
	refilterAll
	refilterIncremental
)

// Model holds the candidates of one completion request and lazily computes
// the filtered, ordered view for the current LineContext.
//
// A Model is not safe for concurrent use.
type Model struct {
	all         []*Item
	filtered    []*Item
	lineContext LineContext
	refilter    refilter
	windows     bool
	scorer      Scorer
}

// New creates a Model over candidates.
func New(candidates []completion.Candidate, lineContext LineContext, opts Options) *Model {
	scorer := opts.Scorer
	if scorer == nil {
		scorer = FuzzyScorer{}
	}
	m := &Model{
		all:         make([]*Item, 0, len(candidates)),
		lineContext: lineContext,
		refilter:    refilterAll,
		windows:     opts.Windows,
		scorer:      scorer,
	}
	for i, c := range candidates {
		m.all = append(m.all, newItem(c, "", false, i, opts.Windows))
	}
	return m
}

// LineContext returns the current line context.
func (m *Model) LineContext() LineContext {
	return m.lineContext
}

// SetLineContext replaces the line context. Typing further characters at
// the end of the line re-filters only the items that matched before; any
// other change re-filters everything.
func (m *Model) SetLineContext(lineContext LineContext) {
	old := m.lineContext
	if old == lineContext {
		return
	}
	m.lineContext = lineContext

	if m.refilter == refilterAll {
		return
	}
	extended := len(lineContext.LeadingLineContent) > len(old.LeadingLineContent) &&
		strings.HasPrefix(lineContext.LeadingLineContent, old.LeadingLineContent) &&
		lineContext.CharacterCountDelta-old.CharacterCountDelta == len(lineContext.LeadingLineContent)-len(old.LeadingLineContent)
	if extended && m.filtered != nil {
		m.refilter = refilterIncremental
	} else {
		m.refilter = refilterAll
	}
}

// ForceRefilterAll discards the filtered view.
func (m *Model) ForceRefilterAll() {
	m.refilter = refilterAll
}

// Upsert inserts or replaces the item identified by key. Replacing keeps the
// item's stable index.
func (m *Model) Upsert(key string, candidate completion.Candidate, invalid bool) {
	for _, item := range m.all {
		if item.Key == key {
			item.Candidate = candidate
			item.Invalid = invalid
			item.derive(m.windows)
			m.refilter = refilterAll
			return
		}
	}
	m.all = append(m.all, newItem(candidate, key, invalid, len(m.all), m.windows))
	m.refilter = refilterAll
}

// Remove drops the item identified by key.
func (m *Model) Remove(key string) {
	m.all = slices.DeleteFunc(m.all, func(item *Item) bool { return item.Key == key })
	m.refilter = refilterAll
}

// Get returns the item identified by key.
func (m *Model) Get(key string) (Item, bool) {
	for _, item := range m.all {
		if item.Key == key {
			return *item, true
		}
	}
	return Item{}, false
}

// Len returns the number of candidates in the model, including items that
// are currently filtered out.
func (m *Model) Len() int {
	return len(m.all)
}

// Items returns the filtered candidates in presentation order.
func (m *Model) Items() []Item {
	m.ensureFiltered()
	out := make([]Item, len(m.filtered))
	for i, item := range m.filtered {
		out[i] = *item
	}
	return out
}

func (m *Model) ensureFiltered() {
	switch m.refilter {
	case refilterNothing:
		return
	case refilterAll:
		m.filtered = m.filterAndSort(m.all)
	case refilterIncremental:
		m.filtered = m.filterAndSort(m.filtered)
	}
	m.refilter = refilterNothing
}

func (m *Model) filterAndSort(source []*Item) []*Item {
	leading := m.lineContext.LeadingLineContent
	target := make([]*Item, 0, len(source))

	// The word depends only on the item's range width, so items of equal
	// width share it.
	wordLen := -1
	var word, wordLow string

	for _, item := range source {
		if item.Invalid {
			continue
		}

		overwriteBefore := item.Candidate.Range.Len() + m.lineContext.CharacterCountDelta
		overwriteBefore = max(0, min(overwriteBefore, len(leading)))
		if wordLen != overwriteBefore {
			wordLen = overwriteBefore
			word = leading[len(leading)-overwriteBefore:]
			wordLow = strings.ToLower(word)
		}

		if wordLen == 0 {
			item.Score = DefaultScore
		} else {
			wordPos := 0
			for wordPos < wordLen && (word[wordPos] == ' ' || word[wordPos] == '\t') {
				wordPos++
			}
			if wordPos >= wordLen {
				item.Score = DefaultScore
			} else {
				score, ok := m.scorer.Score(word, wordLow, wordPos, item.Candidate.Label.Text, item.labelLow, 0)
				if !ok {
					continue
				}
				item.Score = score
			}
		}
		target = append(target, item)
	}

	cmp := newComparator(leading, m.windows)
	slices.SortFunc(target, cmp.compare)
	return target
}
