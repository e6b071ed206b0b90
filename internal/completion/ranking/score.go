package ranking

import (
	"github.com/sahilm/fuzzy"
)

// FuzzyScore is the outcome of matching a word against a label.
type FuzzyScore struct {
	Score      int
	MatchStart int
	// Matches are byte offsets into the label of the matched characters.
	Matches []int
}

// DefaultScore is assigned to candidates scored against an empty word.
var DefaultScore = FuzzyScore{Score: -100}

// Scorer matches pattern[patternStart:] against text[textStart:]. The second
// return value is false when the pattern does not match. Scores are never
// negative, and a pattern that does not match text never matches text when
// extended.
type Scorer interface {
	Score(pattern, patternLow string, patternStart int, text, textLow string, textStart int) (FuzzyScore, bool)
}

// FuzzyScorer is the default Scorer backed by sahilm/fuzzy.
type FuzzyScorer struct{}

var _ Scorer = FuzzyScorer{}

// Score implements Scorer.
func (FuzzyScorer) Score(pattern, patternLow string, patternStart int, text, textLow string, textStart int) (FuzzyScore, bool) {
	if patternStart >= len(pattern) {
		return DefaultScore, true
	}
	matches := fuzzy.Find(pattern[patternStart:], []string{text[textStart:]})
	if len(matches) == 0 {
		return FuzzyScore{}, false
	}

	m := matches[0]
	indexes := make([]int, len(m.MatchedIndexes))
	for i, idx := range m.MatchedIndexes {
		indexes[i] = idx + textStart
	}
	start := textStart
	if len(indexes) > 0 {
		start = indexes[0]
	}
	return FuzzyScore{Score: max(m.Score, 0), MatchStart: start, Matches: indexes}, true
}
