package entity

import (
	"github.com/rocketscienceinc/tictactoe-realtime/internal/apperror"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""

	maxPlayers = 2

	boardFull = "full"
)

const (
	OutcomeMarked = "marked"
	OutcomeWin    = "winner"
	OutcomeDraw   = "draw"
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// TurnResult describes what an accepted move did to the game.
type TurnResult struct {
	Outcome string
	Mark    string
	Cell    int
}

// Game is the state machine of one match: board, players and turn pointer.
// It performs no I/O and holds no locks; callers serialize access.
type Game struct {
	ID      string
	Board   [9]string
	Turn    string
	Players map[string]string
}

func NewGame(id string) *Game {
	return &Game{
		ID:      id,
		Turn:    PlayerX,
		Players: make(map[string]string),
	}
}

// AddPlayer - assigns a mark to the player: X for the first joiner, O for the second.
func (that *Game) AddPlayer(playerID string) (string, error) {
	if len(that.Players) >= maxPlayers {
		return "", apperror.ErrGameFull
	}

	mark := PlayerX
	if len(that.Players) == 1 {
		mark = PlayerO
	}

	that.Players[playerID] = mark

	return mark, nil
}

// RemovePlayer - removes the player; a remaining opponent is reassigned X and
// gets a fresh board, so the slot is open for a new challenger.
func (that *Game) RemovePlayer(playerID string) error {
	if _, ok := that.Players[playerID]; !ok {
		return apperror.ErrPlayerNotFound
	}

	delete(that.Players, playerID)

	if len(that.Players) == 1 {
		for id := range that.Players {
			that.Players[id] = PlayerX
		}
		that.resetBoard()
	}

	return nil
}

// MakeTurn - places the player's mark on the cell and reports the outcome.
// After a win or a draw the board resets in place for a rematch.
func (that *Game) MakeTurn(playerID string, cell int) (TurnResult, error) {
	if cell < 0 || cell >= len(that.Board) {
		return TurnResult{}, apperror.ErrInvalidCell
	}

	if that.Board[cell] != EmptyCell {
		return TurnResult{}, apperror.ErrCellOccupied
	}

	mark, ok := that.Players[playerID]
	if !ok {
		return TurnResult{}, apperror.ErrPlayerNotFound
	}

	if mark != that.Turn {
		return TurnResult{}, apperror.ErrNotYourTurn
	}

	that.Board[cell] = mark
	that.Turn = toggleMark(mark)

	result := TurnResult{Outcome: OutcomeMarked, Mark: mark, Cell: cell}

	switch winner := checkGameStatus(that.Board); winner {
	case PlayerX, PlayerO:
		result.Outcome = OutcomeWin
		that.resetBoard()
	case boardFull:
		result.Outcome = OutcomeDraw
		that.resetBoard()
	}

	return result, nil
}

func (that *Game) NumberOfPlayers() int {
	return len(that.Players)
}

func (that *Game) resetBoard() {
	that.Board = [9]string{}
	that.Turn = PlayerX
}

func toggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// checkGameStatus - returns the winning mark, boardFull on a draw, or "" while
// the game continues. All 8 lines are tested.
func checkGameStatus(board [9]string) string {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range board {
		if cell == EmptyCell {
			return ""
		}
	}

	return boardFull
}
