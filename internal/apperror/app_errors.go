package apperror

import "errors"

var (
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrPlayerNotFound = errors.New("player not found")
	ErrGameFull       = errors.New("game is full")
	ErrAlreadyInGame  = errors.New("already in a game")
	ErrInvalidCell    = errors.New("invalid cell index")
)
