package ranking

import (
	"strings"
	"unicode"

	"github.com/atinylittleshell/termsuggest/internal/completion"
)

// Item is a candidate together with the values ranking derives from it.
type Item struct {
	Candidate completion.Candidate

	// Key identifies synthetic items that are replaced by value across
	// updates. It is empty for provider candidates.
	Key string

	// Invalid items are kept in the model but never shown.
	Invalid bool

	Score FuzzyScore

	// idx is assigned once when the item enters the model and is the last
	// tie-break of the comparator.
	idx int

	labelLow               string
	labelLowExcludeFileExt string
	labelLowNormalizedPath string
	fileExtLow             string
	punctuationPenalty     int
}

// Index returns the stable index the item was assigned by its model.
func (i *Item) Index() int {
	return i.idx
}

// kind is the kind used for ordering.
func (i *Item) kind() completion.Kind {
	if i.Candidate.IsFileOverride {
		return completion.KindFile
	}
	return i.Candidate.Kind
}

func newItem(candidate completion.Candidate, key string, invalid bool, idx int, windows bool) *Item {
	item := &Item{Candidate: candidate, Key: key, Invalid: invalid, idx: idx}
	item.derive(windows)
	return item
}

func (i *Item) derive(windows bool) {
	kind := i.kind()

	i.labelLow = strings.ToLower(i.Candidate.Label.Text)
	i.labelLowExcludeFileExt = i.labelLow
	i.labelLowNormalizedPath = ""
	i.fileExtLow = ""
	i.punctuationPenalty = 0

	if kind == completion.KindFile {
		if windows {
			i.labelLow = strings.ReplaceAll(i.labelLow, "/", `\`)
			i.labelLowExcludeFileExt = i.labelLow
		}
		nameStart := strings.LastIndexAny(i.labelLow, `\/`) + 1
		if ext := strings.LastIndexByte(i.labelLow[nameStart:], '.'); ext > 0 {
			i.labelLowExcludeFileExt = i.labelLow[:nameStart+ext]
			i.fileExtLow = i.labelLow[nameStart+ext+1:]
		}
	}

	if kind.IsResource() {
		normalized := i.labelLow
		if windows {
			normalized = strings.ReplaceAll(normalized, `\`, "/")
		}
		if kind.IsFolderLike() && len(normalized) > 1 {
			normalized = strings.TrimSuffix(normalized, "/")
		}
		i.labelLowNormalizedPath = normalized

		base := strings.TrimRight(i.labelLowExcludeFileExt, `\/`)
		base = base[strings.LastIndexAny(base, `\/`)+1:]
		if strings.HasPrefix(base, "_") {
			i.punctuationPenalty = 1
		}
	}

	if isPunctuationOnly(i.Candidate.Label.Text) {
		i.punctuationPenalty = 1
	}
}

func isPunctuationOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}
