package broadcast

import "log/slog"

type clientDirectory interface {
	Mailbox(id string) (chan<- string, bool)
	GameMailboxes(gameID string) []chan<- string
}

// Broadcaster delivers text messages to mailboxes, fire-and-forget: a client
// without a live connection is skipped, a full mailbox drops the message.
// A send never waits on a consumer's write completing.
type Broadcaster struct {
	logger  *slog.Logger
	clients clientDirectory
}

func New(logger *slog.Logger, clients clientDirectory) *Broadcaster {
	return &Broadcaster{
		logger:  logger,
		clients: clients,
	}
}

// ToGame - delivers the message to every client currently bound to the game.
func (that *Broadcaster) ToGame(gameID, message string) {
	for _, mailbox := range that.clients.GameMailboxes(gameID) {
		that.send(mailbox, message)
	}
}

// ToClient - unicast, same best-effort semantics.
func (that *Broadcaster) ToClient(clientID, message string) {
	mailbox, ok := that.clients.Mailbox(clientID)
	if !ok {
		that.logger.Debug("no mailbox for client", "clientID", clientID)
		return
	}

	that.send(mailbox, message)
}

func (that *Broadcaster) send(mailbox chan<- string, message string) {
	select {
	case mailbox <- message:
	default:
		that.logger.Debug("mailbox full, message dropped", "message", message)
	}
}
