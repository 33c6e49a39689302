package rest

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type clientDirectory interface {
	Register(id string)
	Unregister(id string) error
}

// Handlers carries the registration surface: identity issuance and removal
// are plain CRUD over the session directory.
type Handlers struct {
	logger  *slog.Logger
	clients clientDirectory
}

func NewHandlers(logger *slog.Logger, clients clientDirectory) *Handlers {
	return &Handlers{
		logger:  logger,
		clients: clients,
	}
}

// RegisterClient - issues a fresh opaque identity and creates its directory entry.
func (that *Handlers) RegisterClient(w http.ResponseWriter, _ *http.Request) {
	log := that.logger.With("method", "RegisterClient")

	clientID := uuid.NewString()
	that.clients.Register(clientID)

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(clientID)); err != nil {
		log.Error("failed to write response", "error", err)
		return
	}

	log.Info("client registered", "clientID", clientID)
}

// UnregisterClient - removes the identity; unknown ids get a 404.
func (that *Handlers) UnregisterClient(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "UnregisterClient")

	clientID := mux.Vars(r)["clientID"]

	if err := that.clients.Unregister(clientID); err != nil {
		http.Error(w, "client not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)

	log.Info("client unregistered", "clientID", clientID)
}

func (that *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (that *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
