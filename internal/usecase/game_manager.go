package usecase

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/entity"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/registry"
)

type clientDirectory interface {
	GameID(id string) (string, error)
	BindGame(id, gameID string) error
	ClearGame(id string)
}

type gameRegistry interface {
	JoinOrCreate(playerID string) (*registry.JoinResult, error)
	MakeTurn(gameID, playerID string, cell int) (entity.TurnResult, error)
	RemovePlayer(gameID, playerID string) (int, error)
}

// GameManager pairs clients into games and relays moves. Lock discipline:
// it never holds both registries at once - every operation is a sequence of
// one client-directory call, at most one compound game-registry call, then
// client-directory calls again. Commands from one client arrive serialized
// by its connection's read loop.
type GameManager struct {
	logger *slog.Logger

	clients clientDirectory
	games   gameRegistry
}

func NewGameManager(logger *slog.Logger, clients clientDirectory, games gameRegistry) *GameManager {
	return &GameManager{
		logger: logger,

		clients: clients,
		games:   games,
	}
}

// JoinGame - matches the client into a waiting game or opens a new one.
// A client already bound to a game is rejected before the scan, so a lone
// waiting player can never be paired with itself.
func (that *GameManager) JoinGame(clientID string) (*registry.JoinResult, error) {
	gameID, err := that.clients.GameID(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	if gameID != "" {
		return nil, apperror.ErrAlreadyInGame
	}

	result, err := that.games.JoinOrCreate(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	if err = that.clients.BindGame(clientID, result.GameID); err != nil {
		// The client unregistered between the guard and the bind; roll the
		// seat back so the waiting game does not hold a ghost player.
		if _, removeErr := that.games.RemovePlayer(result.GameID, clientID); removeErr != nil {
			that.logger.Error("failed to roll back join", "gameID", result.GameID, "error", removeErr)
		}

		return nil, fmt.Errorf("failed to bind game: %w", err)
	}

	that.logger.Info("player joined game", "clientID", clientID, "gameID", result.GameID, "mark", result.Mark)

	return result, nil
}

// MakeTurn - resolves the client's bound game and plays the cell on it.
func (that *GameManager) MakeTurn(clientID string, cell int) (string, entity.TurnResult, error) {
	gameID, err := that.clients.GameID(clientID)
	if err != nil {
		return "", entity.TurnResult{}, fmt.Errorf("failed to get client: %w", err)
	}

	if gameID == "" {
		return "", entity.TurnResult{}, registry.ErrGameNotFound
	}

	result, err := that.games.MakeTurn(gameID, clientID, cell)
	if err != nil {
		return gameID, entity.TurnResult{}, err
	}

	return gameID, result, nil
}

// LeaveGame - detaches the client from its game, deleting the game when it
// was the last player. Safe to call for clients that never joined anything;
// the binding is cleared regardless of outcome. Returns the abandoned game's
// id, "" when there was none.
func (that *GameManager) LeaveGame(clientID string) (string, error) {
	gameID, err := that.clients.GameID(clientID)
	if err != nil {
		if errors.Is(err, registry.ErrClientNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("failed to get client: %w", err)
	}

	if gameID == "" {
		return "", nil
	}

	remaining, err := that.games.RemovePlayer(gameID, clientID)
	if err != nil {
		that.logger.Warn("leave skipped a stale game", "clientID", clientID, "gameID", gameID, "error", err)
	}

	that.clients.ClearGame(clientID)

	that.logger.Info("player left game", "clientID", clientID, "gameID", gameID, "remaining", remaining)

	return gameID, nil
}
