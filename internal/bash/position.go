package bash

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// WordPosition says what the word ending at the end of a command line is.
type WordPosition int

const (
	// PositionUnknown means the line could not be parsed.
	PositionUnknown WordPosition = iota
	// PositionCommand means the word names the command to run.
	PositionCommand
	// PositionArgument means the word is an argument of a command.
	PositionArgument
)

func (p WordPosition) String() string {
	switch p {
	case PositionCommand:
		return "command"
	case PositionArgument:
		return "argument"
	}
	return "unknown"
}

// WordPositionAt classifies the word being typed at the end of line.
func WordPositionAt(line string) WordPosition {
	trimmed := strings.TrimRight(line, " \t")
	endsWithSpace := len(trimmed) < len(line)

	file, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		// An operator waiting for its right-hand side starts a new command.
		for _, op := range []string{"|", "&&", "||", "(", "{", "$("} {
			if strings.HasSuffix(trimmed, op) {
				return PositionCommand
			}
		}
		return PositionUnknown
	}

	var last *syntax.CallExpr
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok {
			if last == nil || call.Pos().Offset() >= last.Pos().Offset() {
				last = call
			}
		}
		return true
	})

	if last == nil || len(last.Args) == 0 {
		// Empty line or only assignments so far.
		return PositionCommand
	}
	if int(last.End().Offset()) < len(trimmed) {
		// Something like `ls;` follows the last call.
		return PositionCommand
	}
	if endsWithSpace || len(last.Args) > 1 {
		return PositionArgument
	}
	return PositionCommand
}
