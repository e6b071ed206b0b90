package prompt

import (
	"strings"
)

// Key sequences emitted for edits.
const (
	KeyBackspace     = "\x7f"
	KeyDeleteForward = "\x1b[3~"
	KeyMoveRight     = "\x1bOC"
	KeyMoveLeft      = "\x1bOD"
	KeySubmit        = "\r"
)

// EditOp is a single kind of edit.
type EditOp int

const (
	OpBackspace EditOp = iota
	OpDeleteForward
	OpMoveRight
	OpInsert
	OpSubmit
)

// Edit is one step of an edit sequence. Count is a number of user-perceived
// characters for deletions and moves; Text is used by OpInsert.
type Edit struct {
	Op    EditOp
	Count int
	Text  string
}

// EditSequence is an ordered list of edits applied to the live input.
type EditSequence []Edit

// Backspace appends n backspaces.
func (s EditSequence) Backspace(n int) EditSequence {
	if n <= 0 {
		return s
	}
	return append(s, Edit{Op: OpBackspace, Count: n})
}

// DeleteForward appends n forward deletes.
func (s EditSequence) DeleteForward(n int) EditSequence {
	if n <= 0 {
		return s
	}
	return append(s, Edit{Op: OpDeleteForward, Count: n})
}

// MoveRight appends n cursor moves to the right.
func (s EditSequence) MoveRight(n int) EditSequence {
	if n <= 0 {
		return s
	}
	return append(s, Edit{Op: OpMoveRight, Count: n})
}

// Insert appends inserted text.
func (s EditSequence) Insert(text string) EditSequence {
	if text == "" {
		return s
	}
	return append(s, Edit{Op: OpInsert, Text: text})
}

// Submit appends a line submission.
func (s EditSequence) Submit() EditSequence {
	return append(s, Edit{Op: OpSubmit})
}

// Submits reports whether the sequence submits the line.
func (s EditSequence) Submits() bool {
	for _, e := range s {
		if e.Op == OpSubmit {
			return true
		}
	}
	return false
}

// String renders the sequence as the literal keys a terminal would send.
func (s EditSequence) String() string {
	var sb strings.Builder
	for _, e := range s {
		switch e.Op {
		case OpBackspace:
			sb.WriteString(strings.Repeat(KeyBackspace, e.Count))
		case OpDeleteForward:
			sb.WriteString(strings.Repeat(KeyDeleteForward, e.Count))
		case OpMoveRight:
			sb.WriteString(strings.Repeat(KeyMoveRight, e.Count))
		case OpInsert:
			sb.WriteString(e.Text)
		case OpSubmit:
			sb.WriteString(KeySubmit)
		}
	}
	return sb.String()
}
