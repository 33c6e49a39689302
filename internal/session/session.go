package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/entity"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/registry"
)

const (
	msgWaitingPlayers = "waiting_players"
	msgStartGame      = "start_game"
	msgDraw           = "draw"
)

type matchmaker interface {
	JoinGame(clientID string) (*registry.JoinResult, error)
	MakeTurn(clientID string, cell int) (string, entity.TurnResult, error)
	LeaveGame(clientID string) (string, error)
}

type broadcaster interface {
	ToGame(gameID, message string)
	ToClient(clientID, message string)
}

// Session is the per-connection control loop: it parses inbound command
// lines, drives the matchmaker, and translates outcomes into outbound
// messages. A failed command is reported back to the requesting client and
// never tears down the connection or anyone else's session.
type Session struct {
	logger *slog.Logger

	clientID    string
	manager     matchmaker
	broadcaster broadcaster
}

func New(logger *slog.Logger, clientID string, manager matchmaker, broadcaster broadcaster) *Session {
	return &Session{
		logger: logger.With("clientID", clientID),

		clientID:    clientID,
		manager:     manager,
		broadcaster: broadcaster,
	}
}

// HandleMessage - dispatches one inbound line. Parse errors go back to the
// sender only, never to the rest of the game.
func (that *Session) HandleMessage(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	command, err := ParseCommand(line)
	if err != nil {
		that.broadcaster.ToClient(that.clientID, err.Error())
		return
	}

	switch command.Name {
	case CommandJoinGame:
		that.handleJoinGame()
	case CommandMakePlay:
		that.handleMakePlay(command.Cell)
	}
}

// Close - runs the disconnect teardown: the client leaves its game and the
// remaining player is told the match is interrupted.
func (that *Session) Close() {
	gameID, err := that.manager.LeaveGame(that.clientID)
	if err != nil {
		that.logger.Error("failed to leave game on disconnect", "error", err)
		return
	}

	if gameID != "" {
		that.broadcaster.ToGame(gameID, msgWaitingPlayers)
	}
}

func (that *Session) handleJoinGame() {
	result, err := that.manager.JoinGame(that.clientID)
	if err != nil {
		that.broadcaster.ToClient(that.clientID, renderError(err))
		return
	}

	that.broadcaster.ToClient(that.clientID, result.Mark)

	if result.Players == 1 {
		that.broadcaster.ToGame(result.GameID, msgWaitingPlayers)
		return
	}

	that.broadcaster.ToGame(result.GameID, msgStartGame)
}

func (that *Session) handleMakePlay(cell int) {
	gameID, result, err := that.manager.MakeTurn(that.clientID, cell)
	if err != nil {
		that.broadcaster.ToClient(that.clientID, renderError(err))
		return
	}

	switch result.Outcome {
	case entity.OutcomeWin:
		that.broadcaster.ToGame(gameID, fmt.Sprintf("winner %s", result.Mark))
	case entity.OutcomeDraw:
		that.broadcaster.ToGame(gameID, msgDraw)
	default:
		that.broadcaster.ToGame(gameID, fmt.Sprintf("marked %s %d", result.Mark, result.Cell+1))
	}
}

// renderError - maps a wrapped error back to its bare sentinel text, so the
// wire carries "cell is already occupied" rather than the wrapping chain.
func renderError(err error) string {
	sentinels := []error{
		apperror.ErrAlreadyInGame,
		apperror.ErrGameFull,
		apperror.ErrCellOccupied,
		apperror.ErrNotYourTurn,
		apperror.ErrPlayerNotFound,
		apperror.ErrInvalidCell,
		registry.ErrClientNotFound,
		registry.ErrGameNotFound,
	}

	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return err.Error()
}
