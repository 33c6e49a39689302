package session

import (
	"errors"
	"strconv"
	"strings"
)

const (
	CommandJoinGame = "join_game"
	CommandMakePlay = "make_play"
)

var (
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	ErrInvalidParameters   = errors.New("invalid parameters")
)

// Command is one parsed client instruction. Cell is the zero-based board
// index and only meaningful for CommandMakePlay.
type Command struct {
	Name string
	Cell int
}

// ParseCommand - parses a text line into a command. `make_play` takes one
// position argument in [1,9]; a bad or out-of-range argument is an
// ErrInvalidParameters, anything else an ErrUnrecognizedCommand.
func ParseCommand(line string) (Command, error) {
	parts := strings.Fields(line)

	if len(parts) == 0 {
		return Command{}, ErrUnrecognizedCommand
	}

	switch {
	case parts[0] == CommandMakePlay && len(parts) == 2:
		position, err := strconv.Atoi(parts[1])
		if err != nil || position < 1 || position > 9 {
			return Command{}, ErrInvalidParameters
		}

		return Command{Name: CommandMakePlay, Cell: position - 1}, nil
	case parts[0] == CommandJoinGame:
		return Command{Name: CommandJoinGame}, nil
	default:
		return Command{}, ErrUnrecognizedCommand
	}
}
