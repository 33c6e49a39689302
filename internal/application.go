package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-realtime/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/config"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/registry"
	"github.com/rocketscienceinc/tictactoe-realtime/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-realtime/transport/rest"
	"github.com/rocketscienceinc/tictactoe-realtime/transport/websocket"
)

const shutdownTimeout = 5 * time.Second

// RunApp - wires the registries, matchmaker and transports together and runs
// the HTTP server until a signal arrives.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	clients := registry.NewClientRegistry()
	games := registry.NewGameRegistry()
	gameManager := usecase.NewGameManager(logger, clients, games)
	broadcaster := broadcast.New(logger, clients)

	restHandlers := rest.NewHandlers(logger, clients)
	wsServer := websocket.New(logger, clients, gameManager, broadcaster, conf.MailboxBuffer)

	router := mux.NewRouter()
	router.HandleFunc("/health", restHandlers.Health).Methods(http.MethodGet)
	router.HandleFunc("/ping", restHandlers.Ping).Methods(http.MethodGet)
	router.HandleFunc("/register", restHandlers.RegisterClient).Methods(http.MethodPost)
	router.HandleFunc("/register/{clientID}", restHandlers.UnregisterClient).Methods(http.MethodDelete)
	router.HandleFunc("/ws/{clientID}", wsServer.Handle).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              ":" + conf.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}

		return nil
	}
}
