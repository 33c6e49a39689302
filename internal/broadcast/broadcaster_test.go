package broadcast

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/registry"
)

func newTestBroadcaster(t *testing.T) (*Broadcaster, *registry.ClientRegistry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clients := registry.NewClientRegistry()

	return New(logger, clients), clients
}

func TestBroadcaster_ToClient(t *testing.T) {
	t.Run("Delivers to a connected client", func(t *testing.T) {
		// Given: a client with a live mailbox
		broadcaster, clients := newTestBroadcaster(t)
		clients.Register("a")
		mailbox, err := clients.AttachMailbox("a", 4)
		require.NoError(t, err)

		// When: sending a unicast
		broadcaster.ToClient("a", "hello")

		// Then: the message lands in the mailbox
		assert.Equal(t, "hello", <-mailbox)
	})

	t.Run("Silently skips a client without a mailbox", func(t *testing.T) {
		// Given: a registered client that never connected
		broadcaster, clients := newTestBroadcaster(t)
		clients.Register("a")

		// When/Then: the send is a no-op, not a panic
		broadcaster.ToClient("a", "hello")
		broadcaster.ToClient("ghost", "hello")
	})

	t.Run("Drops the message when the mailbox is full", func(t *testing.T) {
		// Given: a client whose mailbox has no free slot
		broadcaster, clients := newTestBroadcaster(t)
		clients.Register("a")
		mailbox, err := clients.AttachMailbox("a", 1)
		require.NoError(t, err)

		broadcaster.ToClient("a", "first")

		// When: a second send arrives before the pump drained the first
		broadcaster.ToClient("a", "second")

		// Then: the sender did not block and only the first message survives
		assert.Equal(t, "first", <-mailbox)
		assert.Empty(t, mailbox)
	})
}

func TestBroadcaster_ToGame(t *testing.T) {
	t.Run("Fans out to every connected member of the game", func(t *testing.T) {
		// Given: two connected members and one connected outsider
		broadcaster, clients := newTestBroadcaster(t)

		mailboxes := make(map[string]chan string)
		for _, id := range []string{"a", "b", "c"} {
			clients.Register(id)
			mailbox, err := clients.AttachMailbox(id, 4)
			require.NoError(t, err)
			mailboxes[id] = mailbox
		}

		require.NoError(t, clients.BindGame("a", "game-1"))
		require.NoError(t, clients.BindGame("b", "game-1"))

		// When: broadcasting to the game
		broadcaster.ToGame("game-1", "start_game")

		// Then: both members receive it, the outsider does not
		assert.Equal(t, "start_game", <-mailboxes["a"])
		assert.Equal(t, "start_game", <-mailboxes["b"])
		assert.Empty(t, mailboxes["c"])
	})

	t.Run("Broadcast to an unknown game is a no-op", func(t *testing.T) {
		broadcaster, _ := newTestBroadcaster(t)

		broadcaster.ToGame("no-such-game", "hello")
	})
}
