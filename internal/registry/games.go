package registry

import (
	"errors"
	"sync"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/entity"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/pkg"
)

var ErrGameNotFound = errors.New("game not found")

// JoinResult reports where matchmaking placed a player.
type JoinResult struct {
	GameID  string
	Mark    string
	Players int
}

// GameRegistry owns every in-progress game. All engine calls go through it so
// that moves on one game are serialized, and the matchmaking scan-then-add is
// a single critical section: two simultaneous joiners can never both take the
// last slot of a waiting game, nor both open new games when a slot existed.
type GameRegistry struct {
	mu    sync.Mutex
	games map[string]*entity.Game
}

func NewGameRegistry() *GameRegistry {
	return &GameRegistry{
		games: make(map[string]*entity.Game),
	}
}

// JoinOrCreate - puts the player into the first game waiting on an opponent,
// or creates a fresh game with the player as X. Any waiting game may be
// chosen; no fairness ordering is promised.
func (that *GameRegistry) JoinOrCreate(playerID string) (*JoinResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id, game := range that.games {
		if game.NumberOfPlayers() != 1 {
			continue
		}

		mark, err := game.AddPlayer(playerID)
		if err != nil {
			return nil, err
		}

		return &JoinResult{GameID: id, Mark: mark, Players: game.NumberOfPlayers()}, nil
	}

	id := pkg.GenerateGameID()
	for that.games[id] != nil || id == "" {
		id = pkg.GenerateGameID()
	}

	game := entity.NewGame(id)
	mark, err := game.AddPlayer(playerID)
	if err != nil {
		return nil, err
	}

	that.games[id] = game

	return &JoinResult{GameID: id, Mark: mark, Players: game.NumberOfPlayers()}, nil
}

// MakeTurn - relays a move to the game's engine under the registry lock.
func (that *GameRegistry) MakeTurn(gameID, playerID string, cell int) (entity.TurnResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[gameID]
	if !ok {
		return entity.TurnResult{}, ErrGameNotFound
	}

	return game.MakeTurn(playerID, cell)
}

// RemovePlayer - removes the player and reports how many remain; a game whose
// last player left is deleted.
func (that *GameRegistry) RemovePlayer(gameID, playerID string) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[gameID]
	if !ok {
		return 0, ErrGameNotFound
	}

	if err := game.RemovePlayer(playerID); err != nil {
		return game.NumberOfPlayers(), err
	}

	remaining := game.NumberOfPlayers()
	if remaining == 0 {
		delete(that.games, gameID)
	}

	return remaining, nil
}

// Get - returns the game, for status handlers and tests.
func (that *GameRegistry) Get(gameID string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}

	return game, nil
}

func (that *GameRegistry) Count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.games)
}
