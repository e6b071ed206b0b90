// Package prompt models the editable input of a shell prompt: snapshots of
// its state, edit sequences that change it and a buffer that applies them.
package prompt

// State is a snapshot of the editable input.
type State struct {
	// Value is the full input, including any ghost text.
	Value string
	// Prefix is the text before the cursor.
	Prefix string
	// Suffix is the text after the cursor, including any ghost text.
	Suffix string
	// CursorIndex is the byte offset of the cursor in Value.
	CursorIndex int
	// GhostTextIndex is the byte offset where shell-suggested ghost text
	// starts, or -1 when there is none.
	GhostTextIndex int
}

// NewState creates a State for value with the cursor at cursor. Offsets
// outside value are clamped; a ghost text index outside value means none.
func NewState(value string, cursor, ghostTextIndex int) State {
	cursor = max(0, min(cursor, len(value)))
	if ghostTextIndex < 0 || ghostTextIndex > len(value) {
		ghostTextIndex = -1
	}
	return State{
		Value:          value,
		Prefix:         value[:cursor],
		Suffix:         value[cursor:],
		CursorIndex:    cursor,
		GhostTextIndex: ghostTextIndex,
	}
}

// HasGhostText reports whether the shell is suggesting inline text.
func (s State) HasGhostText() bool {
	return s.GhostTextIndex >= 0
}
