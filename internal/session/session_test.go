package session

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/registry"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/usecase"
)

type testRig struct {
	clients   *registry.ClientRegistry
	games     *registry.GameRegistry
	manager   *usecase.GameManager
	mailboxes map[string]chan string
	sessions  map[string]*Session
}

// newTestRig wires real registries, matchmaker and broadcaster, with one
// connected session per client id.
func newTestRig(t *testing.T, clientIDs ...string) *testRig {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clients := registry.NewClientRegistry()
	games := registry.NewGameRegistry()
	manager := usecase.NewGameManager(logger, clients, games)
	broadcaster := broadcast.New(logger, clients)

	rig := &testRig{
		clients:   clients,
		games:     games,
		manager:   manager,
		mailboxes: make(map[string]chan string),
		sessions:  make(map[string]*Session),
	}

	for _, id := range clientIDs {
		clients.Register(id)
		mailbox, err := clients.AttachMailbox(id, 16)
		require.NoError(t, err)

		rig.mailboxes[id] = mailbox
		rig.sessions[id] = New(logger, id, manager, broadcaster)
	}

	return rig
}

// receive pops the next pending message; delivery is synchronous in tests,
// so an empty mailbox means the message was never sent.
func (that *testRig) receive(t *testing.T, clientID string) string {
	t.Helper()

	select {
	case message := <-that.mailboxes[clientID]:
		return message
	default:
		t.Fatalf("no pending message for %s", clientID)
		return ""
	}
}

func (that *testRig) assertSilent(t *testing.T, clientID string) {
	t.Helper()

	select {
	case message := <-that.mailboxes[clientID]:
		t.Fatalf("unexpected message for %s: %q", clientID, message)
	default:
	}
}

func (that *testRig) startMatch(t *testing.T, first, second string) {
	t.Helper()

	that.sessions[first].HandleMessage("join_game")
	require.Equal(t, "X", that.receive(t, first))
	require.Equal(t, "waiting_players", that.receive(t, first))

	that.sessions[second].HandleMessage("join_game")
	require.Equal(t, "O", that.receive(t, second))
	require.Equal(t, "start_game", that.receive(t, second))
	require.Equal(t, "start_game", that.receive(t, first))
}

func TestSession_JoinGame(t *testing.T) {
	t.Run("First joiner gets X and a waiting notice", func(t *testing.T) {
		// Given: one connected client
		rig := newTestRig(t, "a")

		// When: it joins
		rig.sessions["a"].HandleMessage("join_game")

		// Then: it is told its mark, then that the game waits for an opponent
		assert.Equal(t, "X", rig.receive(t, "a"))
		assert.Equal(t, "waiting_players", rig.receive(t, "a"))
	})

	t.Run("Second joiner starts the game for both", func(t *testing.T) {
		// Given: a waiting player
		rig := newTestRig(t, "a", "b")
		rig.sessions["a"].HandleMessage("join_game")
		rig.receive(t, "a")
		rig.receive(t, "a")

		// When: an opponent joins
		rig.sessions["b"].HandleMessage("join_game")

		// Then: the joiner gets O and both get start_game
		assert.Equal(t, "O", rig.receive(t, "b"))
		assert.Equal(t, "start_game", rig.receive(t, "b"))
		assert.Equal(t, "start_game", rig.receive(t, "a"))
	})

	t.Run("Joining twice is rejected to the sender only", func(t *testing.T) {
		// Given: a client already waiting
		rig := newTestRig(t, "a")
		rig.sessions["a"].HandleMessage("join_game")
		rig.receive(t, "a")
		rig.receive(t, "a")

		// When: it joins again
		rig.sessions["a"].HandleMessage("join_game")

		// Then: it gets the error text back
		assert.Equal(t, "already in a game", rig.receive(t, "a"))
	})
}

func TestSession_MakePlay(t *testing.T) {
	t.Run("Accepted move is broadcast to the whole game", func(t *testing.T) {
		// Given: a running match
		rig := newTestRig(t, "a", "b")
		rig.startMatch(t, "a", "b")

		// When: X plays position 1
		rig.sessions["a"].HandleMessage("make_play 1")

		// Then: both players see the mark
		assert.Equal(t, "marked X 1", rig.receive(t, "a"))
		assert.Equal(t, "marked X 1", rig.receive(t, "b"))
	})

	t.Run("Occupied cell is reported to the offender only", func(t *testing.T) {
		// Given: X holds position 1
		rig := newTestRig(t, "a", "b")
		rig.startMatch(t, "a", "b")
		rig.sessions["a"].HandleMessage("make_play 1")
		rig.receive(t, "a")
		rig.receive(t, "b")

		// When: O plays the same position
		rig.sessions["b"].HandleMessage("make_play 1")

		// Then: only O hears about it
		assert.Equal(t, "cell is already occupied", rig.receive(t, "b"))
		rig.assertSilent(t, "a")
	})

	t.Run("Playing out of turn is reported to the offender only", func(t *testing.T) {
		// Given: a running match where X moves first
		rig := newTestRig(t, "a", "b")
		rig.startMatch(t, "a", "b")

		// When: O tries to open
		rig.sessions["b"].HandleMessage("make_play 5")

		// Then: only O hears about it
		assert.Equal(t, "it's not your turn", rig.receive(t, "b"))
		rig.assertSilent(t, "a")
	})

	t.Run("Playing without a game returns game not found", func(t *testing.T) {
		rig := newTestRig(t, "a")

		rig.sessions["a"].HandleMessage("make_play 1")

		assert.Equal(t, "game not found", rig.receive(t, "a"))
	})

	t.Run("Completed top row wins and the rematch continues", func(t *testing.T) {
		// Given: a running match
		rig := newTestRig(t, "a", "b")
		rig.startMatch(t, "a", "b")

		drainBoth := func() {
			rig.receive(t, "a")
			rig.receive(t, "b")
		}

		// When: X completes the top row while O plays elsewhere
		for _, line := range []struct {
			clientID string
			command  string
		}{
			{"a", "make_play 1"}, {"b", "make_play 4"},
			{"a", "make_play 2"}, {"b", "make_play 5"},
		} {
			rig.sessions[line.clientID].HandleMessage(line.command)
			drainBoth()
		}

		rig.sessions["a"].HandleMessage("make_play 3")

		// Then: both players see the winner
		assert.Equal(t, "winner X", rig.receive(t, "a"))
		assert.Equal(t, "winner X", rig.receive(t, "b"))

		// And: the next move lands on an empty board
		rig.sessions["a"].HandleMessage("make_play 1")
		assert.Equal(t, "marked X 1", rig.receive(t, "a"))
		assert.Equal(t, "marked X 1", rig.receive(t, "b"))
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: a running match
		rig := newTestRig(t, "a", "b")
		rig.startMatch(t, "a", "b")

		drainBoth := func() {
			rig.receive(t, "a")
			rig.receive(t, "b")
		}

		// When: both fill the board without a three-in-a-row
		for _, line := range []struct {
			clientID string
			command  string
		}{
			{"a", "make_play 1"}, {"b", "make_play 2"},
			{"a", "make_play 3"}, {"b", "make_play 4"},
			{"a", "make_play 6"}, {"b", "make_play 5"},
			{"a", "make_play 7"}, {"b", "make_play 9"},
		} {
			rig.sessions[line.clientID].HandleMessage(line.command)
			drainBoth()
		}

		rig.sessions["a"].HandleMessage("make_play 8")

		// Then: both players see the draw
		assert.Equal(t, "draw", rig.receive(t, "a"))
		assert.Equal(t, "draw", rig.receive(t, "b"))
	})
}

func TestSession_ParseErrors(t *testing.T) {
	t.Run("Unrecognized command goes to the sender only", func(t *testing.T) {
		// Given: a running match
		rig := newTestRig(t, "a", "b")
		rig.startMatch(t, "a", "b")

		// When: one player sends garbage
		rig.sessions["a"].HandleMessage("dance")

		// Then: only the sender hears about it
		assert.Equal(t, "unrecognized command", rig.receive(t, "a"))
		rig.assertSilent(t, "b")
	})

	t.Run("Invalid parameters go to the sender only", func(t *testing.T) {
		rig := newTestRig(t, "a", "b")
		rig.startMatch(t, "a", "b")

		rig.sessions["a"].HandleMessage("make_play 42")

		assert.Equal(t, "invalid parameters", rig.receive(t, "a"))
		rig.assertSilent(t, "b")
	})

	t.Run("Blank lines are ignored", func(t *testing.T) {
		rig := newTestRig(t, "a")

		rig.sessions["a"].HandleMessage("\n")

		rig.assertSilent(t, "a")
	})
}

func TestSession_Disconnect(t *testing.T) {
	t.Run("Opponent is notified and keeps a playable game", func(t *testing.T) {
		// Given: a running match with a move on the board
		rig := newTestRig(t, "a", "b")
		rig.startMatch(t, "a", "b")
		rig.sessions["a"].HandleMessage("make_play 1")
		rig.receive(t, "a")
		rig.receive(t, "b")

		// When: the first player disconnects
		rig.sessions["a"].Close()

		// Then: the opponent learns the match is interrupted
		assert.Equal(t, "waiting_players", rig.receive(t, "b"))

		// And: the opponent continues as X on a fresh board
		rig.sessions["b"].HandleMessage("make_play 1")
		assert.Equal(t, "marked X 1", rig.receive(t, "b"))
		assert.Equal(t, 1, rig.games.Count())
	})

	t.Run("Disconnect without a game does nothing", func(t *testing.T) {
		rig := newTestRig(t, "a", "b")

		rig.sessions["a"].Close()

		rig.assertSilent(t, "a")
		rig.assertSilent(t, "b")
	})
}
