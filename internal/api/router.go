package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/paddle-arena/internal/api/handler"
	apimiddleware "github.com/mcoot/paddle-arena/internal/api/middleware"
	"github.com/mcoot/paddle-arena/internal/api/response"
	"github.com/mcoot/paddle-arena/internal/middleware"
	"github.com/mcoot/paddle-arena/internal/transport/stream"
)

// Sessions is everything the API needs from the session registry
type Sessions interface {
	handler.Sessions
	stream.Commands
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Sessions Sessions
	Chat     handler.Chat
	Hubs     *stream.HubManager
	Sockets  *stream.SocketServer
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	gameHandler := handler.NewGameHandler(cfg.Sessions)
	chatHandler := handler.NewChatHandler(cfg.Chat)
	streamHandler := handler.NewStreamHandler(cfg.Sessions, cfg.Hubs, cfg.Sockets)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(apimiddleware.Recovery(cfg.Logger))

	// Game sessions
	api.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{game_id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{game_id}", gameHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/games/{game_id}/moves", gameHandler.Move).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/ready", gameHandler.Ready).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/disconnect", gameHandler.Disconnect).Methods(http.MethodPost)

	// Ready window control
	api.HandleFunc("/games/{game_id}/ready-timeout", gameHandler.ScheduleReadyTimeout).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/ready-timeout", gameHandler.CancelReadyTimeout).Methods(http.MethodDelete)
	api.HandleFunc("/games/{game_id}/ready-timeout", gameHandler.GetReadyTimeout).Methods(http.MethodGet)

	// Streams
	api.HandleFunc("/games/{game_id}/events", streamHandler.GameEvents).Methods(http.MethodGet)
	api.HandleFunc("/games/{game_id}/ws", streamHandler.Socket).Methods(http.MethodGet)
	api.HandleFunc("/players/{player_id}/events", streamHandler.PlayerEvents).Methods(http.MethodGet)

	// Chat
	api.HandleFunc("/chat/messages", chatHandler.Send).Methods(http.MethodPost)
	api.HandleFunc("/players/{player_id}/messages", chatHandler.History).Methods(http.MethodGet)

	api.HandleFunc("/health", healthHandler(cfg.Sessions)).Methods(http.MethodGet)

	return r
}

func healthHandler(sessions handler.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{
			Status:       "ok",
			LiveSessions: len(sessions.ListSessions(r.Context())),
		})
	}
}
