package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/session"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/usecase"
)

const pingMessage = "ping"

type clientDirectory interface {
	GameID(id string) (string, error)
	AttachMailbox(id string, buffer int) (chan string, error)
	Unregister(id string) error
}

// Server upgrades registered clients to a websocket stream and runs one
// session per connection: a read loop feeding the command dispatcher and a
// writer goroutine draining the client's mailbox, so a slow receiver never
// stalls a broadcast.
type Server struct {
	logger *slog.Logger

	clients     clientDirectory
	manager     *usecase.GameManager
	broadcaster *broadcast.Broadcaster

	upgrader      websocket.Upgrader
	mailboxBuffer int
}

func New(logger *slog.Logger, clients clientDirectory, manager *usecase.GameManager, broadcaster *broadcast.Broadcaster, mailboxBuffer int) *Server {
	return &Server{
		logger: logger,

		clients:     clients,
		manager:     manager,
		broadcaster: broadcaster,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		mailboxBuffer: mailboxBuffer,
	}
}

// Handle - upgrades GET /ws/{clientID} for a previously registered identity.
func (that *Server) Handle(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "Handle")

	clientID := mux.Vars(r)["clientID"]

	if _, err := that.clients.GameID(clientID); err != nil {
		http.Error(w, "client not found", http.StatusNotFound)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "clientID", clientID, "error", err)
		return
	}
	defer conn.Close()

	mailbox, err := that.clients.AttachMailbox(clientID, that.mailboxBuffer)
	if err != nil {
		log.Error("failed to attach mailbox", "clientID", clientID, "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go that.writePump(ctx, conn, mailbox)

	log.Info("client connected", "clientID", clientID)

	sess := session.New(that.logger, clientID, that.manager, that.broadcaster)
	that.readLoop(conn, sess)

	sess.Close()

	if err = that.clients.Unregister(clientID); err != nil {
		log.Error("failed to unregister client", "clientID", clientID, "error", err)
	}

	log.Info("client disconnected", "clientID", clientID)
}

// readLoop - feeds inbound text lines to the session until the stream ends.
// A lone "ping" line is connection keep-alive and never reaches the dispatcher.
func (that *Server) readLoop(conn *websocket.Conn, sess *session.Session) {
	log := that.logger.With("method", "readLoop")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("read loop finished", "error", err)
			return
		}

		line := string(data)
		if strings.TrimSpace(line) == pingMessage {
			continue
		}

		sess.HandleMessage(line)
	}
}

// writePump - drains the mailbox into the socket until the connection closes.
func (that *Server) writePump(ctx context.Context, conn *websocket.Conn, mailbox <-chan string) {
	log := that.logger.With("method", "writePump")

	for {
		select {
		case <-ctx.Done():
			return
		case message := <-mailbox:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		}
	}
}
