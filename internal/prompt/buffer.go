package prompt

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Buffer manages the text and cursor of a prompt line.
// Text is stored as grapheme clusters so that edits operate on
// user-perceived characters. Text at and after the ghost index is ghost text
// suggested by the shell; it becomes real when the cursor moves over it.
type Buffer struct {
	// clusters stores the text content as grapheme clusters
	clusters []string
	// pos is the cursor position (index in clusters)
	pos int
	// ghost is the index of the first ghost cluster, or -1
	ghost int
}

// NewBuffer creates a buffer holding text with the cursor at the end.
func NewBuffer(text string) *Buffer {
	clusters := splitGraphemes(text)
	return &Buffer{
		clusters: clusters,
		pos:      len(clusters),
		ghost:    -1,
	}
}

// NewBufferFromState creates a buffer matching a prompt state.
func NewBufferFromState(s State) *Buffer {
	b := NewBuffer(s.Value[:s.CursorIndex])
	b.clusters = append(b.clusters, splitGraphemes(s.Value[s.CursorIndex:])...)
	if s.GhostTextIndex >= 0 {
		b.ghost = GraphemeCount(s.Value[:s.GhostTextIndex])
	}
	return b
}

// SetGhostText replaces any ghost text with text.
func (b *Buffer) SetGhostText(text string) {
	b.dropGhost()
	if text == "" {
		return
	}
	b.ghost = len(b.clusters)
	b.clusters = append(b.clusters, splitGraphemes(text)...)
}

// Text returns the current text content, including ghost text.
func (b *Buffer) Text() string {
	return strings.Join(b.clusters, "")
}

// Pos returns the cursor position in grapheme clusters.
func (b *Buffer) Pos() int {
	return b.pos
}

// State returns a snapshot of the buffer.
func (b *Buffer) State() State {
	prefix := strings.Join(b.clusters[:b.pos], "")
	ghostIndex := -1
	if b.ghost >= 0 {
		ghostIndex = len(strings.Join(b.clusters[:b.ghost], ""))
	}
	return NewState(b.Text(), len(prefix), ghostIndex)
}

// Insert inserts text at the cursor and moves the cursor past it. Typing
// discards ghost text.
func (b *Buffer) Insert(text string) {
	inserted := splitGraphemes(text)
	if len(inserted) == 0 {
		return
	}
	b.dropGhost()

	result := make([]string, 0, len(b.clusters)+len(inserted))
	result = append(result, b.clusters[:b.pos]...)
	result = append(result, inserted...)
	result = append(result, b.clusters[b.pos:]...)

	b.clusters = result
	b.pos += len(inserted)
}

// DeleteCharBackward deletes the character before the cursor.
// Returns true if a character was deleted.
func (b *Buffer) DeleteCharBackward() bool {
	b.dropGhost()
	if b.pos == 0 {
		return false
	}
	b.clusters = append(b.clusters[:b.pos-1], b.clusters[b.pos:]...)
	b.pos--
	return true
}

// DeleteCharForward deletes the character at the cursor.
// Returns true if a character was deleted.
func (b *Buffer) DeleteCharForward() bool {
	b.dropGhost()
	if b.pos >= len(b.clusters) {
		return false
	}
	b.clusters = append(b.clusters[:b.pos], b.clusters[b.pos+1:]...)
	return true
}

// CursorRight moves the cursor one character right, accepting ghost text it
// moves over.
func (b *Buffer) CursorRight() {
	if b.pos >= len(b.clusters) {
		return
	}
	b.pos++
	if b.ghost >= 0 && b.ghost < b.pos {
		b.ghost = b.pos
		if b.ghost >= len(b.clusters) {
			b.ghost = -1
		}
	}
}

// CursorLeft moves the cursor one character left.
func (b *Buffer) CursorLeft() {
	if b.pos > 0 {
		b.pos--
	}
}

// Apply applies an edit sequence. It returns true when the sequence
// submits the line.
func (b *Buffer) Apply(seq EditSequence) bool {
	submitted := false
	for _, e := range seq {
		switch e.Op {
		case OpBackspace:
			for i := 0; i < e.Count; i++ {
				b.DeleteCharBackward()
			}
		case OpDeleteForward:
			for i := 0; i < e.Count; i++ {
				b.DeleteCharForward()
			}
		case OpMoveRight:
			for i := 0; i < e.Count; i++ {
				b.CursorRight()
			}
		case OpInsert:
			b.Insert(e.Text)
		case OpSubmit:
			submitted = true
		}
	}
	return submitted
}

func (b *Buffer) dropGhost() {
	if b.ghost < 0 {
		return
	}
	b.clusters = b.clusters[:b.ghost]
	b.pos = min(b.pos, len(b.clusters))
	b.ghost = -1
}

func splitGraphemes(text string) []string {
	clusters := make([]string, 0, len(text))
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}
	return clusters
}

// GraphemeCount returns the number of user-perceived characters in s.
func GraphemeCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
