package registry

import (
	"errors"
	"sync"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/entity"
)

var ErrClientNotFound = errors.New("client not found")

// ClientRegistry is the session directory: every live goroutine reaches the
// same instance, and each exported method is one atomic section under mu.
// Mailboxes handed out here are buffered and never closed; an abandoned
// mailbox is simply dropped together with its record.
type ClientRegistry struct {
	mu      sync.Mutex
	clients map[string]*entity.Client
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*entity.Client),
	}
}

// Register - creates an empty, unbound record for the identity.
func (that *ClientRegistry) Register(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[id] = &entity.Client{ID: id}
}

// Unregister - removes the record entirely.
func (that *ClientRegistry) Unregister(id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.clients[id]; !ok {
		return ErrClientNotFound
	}

	delete(that.clients, id)

	return nil
}

// GameID - reports the game the client is bound to, "" when unbound.
func (that *ClientRegistry) GameID(id string) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	client, ok := that.clients[id]
	if !ok {
		return "", ErrClientNotFound
	}

	return client.GameID, nil
}

func (that *ClientRegistry) BindGame(id, gameID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	client, ok := that.clients[id]
	if !ok {
		return ErrClientNotFound
	}

	client.GameID = gameID

	return nil
}

// ClearGame - drops the client's game binding; unknown clients are a no-op.
func (that *ClientRegistry) ClearGame(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if client, ok := that.clients[id]; ok {
		client.GameID = ""
	}
}

// AttachMailbox - gives the client a fresh outbound mailbox for the lifetime
// of a connection and returns it for the writer pump to drain.
func (that *ClientRegistry) AttachMailbox(id string, buffer int) (chan string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	client, ok := that.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}

	client.Mailbox = make(chan string, buffer)

	return client.Mailbox, nil
}

func (that *ClientRegistry) DetachMailbox(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if client, ok := that.clients[id]; ok {
		client.Mailbox = nil
	}
}

// Mailbox - returns the client's live mailbox, if any.
func (that *ClientRegistry) Mailbox(id string) (chan<- string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	client, ok := that.clients[id]
	if !ok || client.Mailbox == nil {
		return nil, false
	}

	return client.Mailbox, true
}

// GameMailboxes - snapshots the mailboxes of every client currently bound to
// the game. Clients without a live connection are skipped.
func (that *ClientRegistry) GameMailboxes(gameID string) []chan<- string {
	that.mu.Lock()
	defer that.mu.Unlock()

	var mailboxes []chan<- string
	for _, client := range that.clients {
		if client.GameID == gameID && client.Mailbox != nil {
			mailboxes = append(mailboxes, client.Mailbox)
		}
	}

	return mailboxes
}
