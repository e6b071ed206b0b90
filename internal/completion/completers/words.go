// Package completers holds the built-in completion providers: command
// names, filesystem paths, bash completion specs and command history.
package completers

import (
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/bash"
	"github.com/kballard/go-shellquote"
)

// currentWord returns the start offset and text of the word ending at the
// end of line. Escaped spaces stay inside the word.
func currentWord(line string) (int, string) {
	for i := len(line) - 1; i >= 0; i-- {
		if (line[i] == ' ' || line[i] == '\t') && (i == 0 || line[i-1] != '\\') {
			return i + 1, line[i+1:]
		}
	}
	return 0, line
}

// splitWords splits line into shell words. Unterminated quotes fall back to
// whitespace splitting. A trailing empty word is added when line ends with
// whitespace, since a new word is being started.
func splitWords(line string) []string {
	words, err := shellquote.Split(line)
	if err != nil {
		words = strings.Fields(line)
	}
	if start, word := currentWord(line); word == "" && start > 0 && len(words) > 0 {
		words = append(words, "")
	}
	return words
}

// isPathLike reports whether word names a path rather than a command.
func isPathLike(word string) bool {
	return strings.ContainsAny(word, `/\`) ||
		strings.HasPrefix(word, ".") ||
		strings.HasPrefix(word, "~")
}

func atCommandPosition(line string) bool {
	return bash.WordPositionAt(line) == bash.PositionCommand
}
