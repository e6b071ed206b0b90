package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewState(t *testing.T) {
	s := NewState("git checkout", 4, -1)
	assert.Equal(t, "git ", s.Prefix)
	assert.Equal(t, "checkout", s.Suffix)
	assert.Equal(t, 4, s.CursorIndex)
	assert.False(t, s.HasGhostText())

	s = NewState("ls", 10, 5)
	assert.Equal(t, 2, s.CursorIndex)
	assert.Equal(t, -1, s.GhostTextIndex)
}

func TestEditSequence_String(t *testing.T) {
	seq := EditSequence{}.
		Backspace(2).
		DeleteForward(1).
		Insert("out").
		MoveRight(0).
		Submit()

	assert.Equal(t, "\x7f\x7f\x1b[3~out\r", seq.String())
	assert.True(t, seq.Submits())

	assert.Equal(t, "\x1bOC\x1bOC", EditSequence{}.MoveRight(2).String())
	assert.False(t, EditSequence{}.Insert("x").Submits())
	assert.Empty(t, EditSequence{}.Backspace(0).Insert("").String())
}

func TestBuffer_Editing(t *testing.T) {
	b := NewBuffer("git chec")
	assert.Equal(t, 8, b.Pos())

	b.Insert("kout")
	assert.Equal(t, "git checkout", b.Text())

	assert.True(t, b.DeleteCharBackward())
	assert.Equal(t, "git checkou", b.Text())

	b.CursorLeft()
	b.CursorLeft()
	assert.True(t, b.DeleteCharForward())
	assert.Equal(t, "git checku", b.Text())

	s := b.State()
	assert.Equal(t, "git check", s.Prefix)
	assert.Equal(t, "u", s.Suffix)
}

func TestBuffer_Graphemes(t *testing.T) {
	b := NewBuffer("cd café/👍🏽")
	assert.Equal(t, 9, b.Pos())
	assert.Equal(t, 9, GraphemeCount(b.Text()))

	b.DeleteCharBackward()
	assert.Equal(t, "cd café/", b.Text())
	assert.Equal(t, len("cd café/"), b.State().CursorIndex)
}

func TestBuffer_GhostText(t *testing.T) {
	b := NewBuffer("git ch")
	b.SetGhostText("eckout")

	s := b.State()
	assert.Equal(t, "git checkout", s.Value)
	assert.Equal(t, 6, s.CursorIndex)
	assert.Equal(t, 6, s.GhostTextIndex)

	b.CursorRight()
	s = b.State()
	assert.Equal(t, 7, s.CursorIndex)
	assert.Equal(t, 7, s.GhostTextIndex)

	b.Apply(EditSequence{}.MoveRight(5))
	s = b.State()
	assert.Equal(t, "git checkout", s.Value)
	assert.False(t, s.HasGhostText())

	b.SetGhostText(" main")
	b.Insert("x")
	assert.Equal(t, "git checkoutx", b.Text())
	assert.False(t, b.State().HasGhostText())
}

func TestBuffer_FromState(t *testing.T) {
	b := NewBufferFromState(NewState("ls src/ma.go", 9, -1))
	b.Apply(EditSequence{}.Insert("in"))
	assert.Equal(t, "ls src/main.go", b.Text())

	ghost := NewBufferFromState(NewState("echo hello", 5, 5))
	ghost.Insert("x")
	assert.Equal(t, "echo x", ghost.Text())
}

func TestBuffer_Apply(t *testing.T) {
	b := NewBuffer("cd sr")
	submitted := b.Apply(EditSequence{}.Backspace(2).Insert("src/").Submit())

	assert.True(t, submitted)
	assert.Equal(t, "cd src/", b.Text())
}
