package ranking

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/atinylittleshell/termsuggest/internal/completion"
)

var gitCommand = regexp.MustCompile(`^\s*git\b`)

var fileExtScoresWindows = map[string]float64{
	"ps1":  0.09,
	"exe":  0.08,
	"bat":  0.07,
	"cmd":  0.07,
	"msi":  0.06,
	"com":  0.06,
	"sh":   -0.05,
	"bash": -0.05,
	"zsh":  -0.05,
	"fish": -0.05,
	"csh":  -0.06,
	"ksh":  -0.06,
}

var fileExtScoresPosix = map[string]float64{
	"ps1":  0.05,
	"bat":  -0.05,
	"cmd":  -0.05,
	"exe":  -0.05,
	"sh":   0.05,
	"bash": 0.05,
	"zsh":  0.05,
	"fish": 0.05,
	"csh":  0.04,
	"ksh":  0.04,
	"py":   0.05,
	"pl":   0.05,
}

// comparator orders items for a given leading line.
type comparator struct {
	leadingLineContent string
	fileExtScores      map[string]float64
}

func newComparator(leadingLineContent string, windows bool) comparator {
	scores := fileExtScoresPosix
	if windows {
		scores = fileExtScoresWindows
	}
	return comparator{leadingLineContent: leadingLineContent, fileExtScores: scores}
}

// compare returns a negative number when a sorts before b. It only returns
// zero for the same item.
func (c comparator) compare(a, b *Item) int {
	aKind, bKind := a.kind(), b.kind()

	// Always-on-top inline suggestions
	if aKind != bKind {
		if aKind == completion.KindInlineSuggestionAlwaysOnTop {
			return -1
		}
		if bKind == completion.KindInlineSuggestionAlwaysOnTop {
			return 1
		}
	}

	if a.Score.Score != b.Score.Score {
		if a.Score.Score > b.Score.Score {
			return -1
		}
		return 1
	}

	if aKind != bKind {
		if aKind == completion.KindInlineSuggestion {
			return -1
		}
		if bKind == completion.KindInlineSuggestion {
			return 1
		}
	}

	if a.punctuationPenalty != b.punctuationPenalty {
		return a.punctuationPenalty - b.punctuationPenalty
	}

	// Files typed as the command itself
	if aKind == completion.KindFile && bKind == completion.KindFile && !strings.Contains(c.leadingLineContent, " ") {
		if a.labelLowExcludeFileExt != b.labelLowExcludeFileExt {
			if r := compareIgnoringPunctuation(a.labelLowExcludeFileExt, b.labelLowExcludeFileExt); r != 0 {
				return r
			}
		}
		if d := len(a.labelLowExcludeFileExt) - len(b.labelLowExcludeFileExt); d != 0 {
			return d
		}
		aExt, bExt := c.fileExtScores[a.fileExtLow], c.fileExtScores[b.fileExtLow]
		if aExt != bExt {
			if aExt > bExt {
				return -1
			}
			return 1
		}
		if d := len(a.fileExtLow) - len(b.fileExtLow); d != 0 {
			return d
		}
	}

	// Default branches first
	if aKind == completion.KindArgument && bKind == completion.KindArgument && gitCommand.MatchString(c.leadingLineContent) {
		aDefault, bDefault := isDefaultBranch(a.labelLow), isDefaultBranch(b.labelLow)
		if aDefault && !bDefault {
			return -1
		}
		if bDefault && !aDefault {
			return 1
		}
	}

	if aKind == completion.KindMethod && bKind == completion.KindMethod {
		score := 0
		aDesc, bDesc := a.Candidate.Label.Description != "", b.Candidate.Label.Description != ""
		if aDesc && !bDesc {
			score = -2
		} else if bDesc && !aDesc {
			score = 2
		}
		score += detailWeight(b) - detailWeight(a)
		if score != 0 {
			return score
		}
	}

	if aKind == completion.KindFolder && bKind == completion.KindFolder && a.labelLowNormalizedPath != "" && b.labelLowNormalizedPath != "" {
		aDepth := strings.Count(a.labelLowNormalizedPath, "/")
		bDepth := strings.Count(b.labelLowNormalizedPath, "/")
		if aDepth != bDepth {
			return aDepth - bDepth
		}
		if a.labelLowNormalizedPath != b.labelLowNormalizedPath {
			if strings.HasPrefix(b.labelLowNormalizedPath, a.labelLowNormalizedPath) {
				return -1
			}
			if strings.HasPrefix(a.labelLowNormalizedPath, b.labelLowNormalizedPath) {
				return 1
			}
		}
	}

	if aKind != bKind {
		if d := kindTier(aKind) - kindTier(bKind); d != 0 {
			return d
		}
	}

	if r := compareIgnoringPunctuation(a.labelLow, b.labelLow); r != 0 {
		return r
	}

	return a.idx - b.idx
}

func isDefaultBranch(label string) bool {
	return label == "main" || label == "master"
}

func detailWeight(item *Item) int {
	weight := 0
	if item.Candidate.Detail != "" {
		weight++
	}
	if item.Candidate.Documentation != "" {
		weight += 2
	}
	return weight
}

// kindTier ranks kinds for the tie-break between items of different kinds.
func kindTier(kind completion.Kind) int {
	switch {
	case kind == completion.KindMethod || kind == completion.KindAlias:
		return 0
	case kind == completion.KindArgument:
		return 1
	case kind.IsResource():
		return 3
	}
	return 2
}

// compareIgnoringPunctuation compares strings as if punctuation and
// whitespace were removed from both.
func compareIgnoringPunctuation(a, b string) int {
	return strings.Compare(stripPunctuation(a), stripPunctuation(b))
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
