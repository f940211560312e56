package gateway

import (
	"context"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bidroom/go/internal/auction/lobby"
)

// Version is reported by GET /info.
const Version = "1.0.0"

// Config holds configuration for the gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
	AllowedOrigins   []string
}

// DefaultConfig returns default configuration for the gateway.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		AllowedOrigins:   []string{"*"},
	}
}

// Service bundles the websocket and HTTP surfaces of the auction server.
type Service struct {
	lobby             *lobby.Lobby
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	config            Config
}

// NewService creates the gateway service. ctx bounds every dispatched client action.
func NewService(ctx context.Context, l *lobby.Lobby, config Config) *Service {
	cm := NewConnectionManager(ctx, l, config.ConnectionConfig)
	return &Service{
		lobby:             l,
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		stateHandler:      NewStateHandler(l),
		config:            config,
	}
}

// InfoResponse is the body of GET /info.
type InfoResponse struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
}

// RegisterRoutes registers every gateway route on mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, InfoResponse{
			Service:     "auction-gateway",
			Version:     Version,
			Connections: s.connectionManager.Count(),
			Rooms:       s.lobby.Len(),
		})
	})

	log.Info().Msg("auction gateway routes registered")
}

// Handler returns the full HTTP handler with CORS applied.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:         86400,
	})
	return c.Handler(mux)
}

// Stop closes every open connection. Rooms stay alive until the lobby context ends.
func (s *Service) Stop() {
	s.connectionManager.CloseAll()
	log.Info().Msg("auction gateway stopped")
}
