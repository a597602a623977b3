package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/paddle-arena/internal/model"
	"github.com/mcoot/paddle-arena/internal/transport/stream"
)

// StreamHandler serves the SSE and WebSocket endpoints
type StreamHandler struct {
	sessions Sessions
	hubs     *stream.HubManager
	sockets  *stream.SocketServer
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(sessions Sessions, hubs *stream.HubManager, sockets *stream.SocketServer) *StreamHandler {
	return &StreamHandler{
		sessions: sessions,
		hubs:     hubs,
		sockets:  sockets,
	}
}

// GameEvents handles GET /api/v1/games/{game_id}/events
func (h *StreamHandler) GameEvents(w http.ResponseWriter, r *http.Request) {
	gameID := gameIDFrom(r)
	if !h.sessions.Exists(gameID) {
		WriteError(w, model.ErrUnknownGame)
		return
	}

	hub := h.hubs.GetOrCreateHub(stream.GameTopic(gameID))
	stream.ServeSSE(w, r, hub, r.URL.Query().Get("player_id"))
}

// PlayerEvents handles GET /api/v1/players/{player_id}/events
func (h *StreamHandler) PlayerEvents(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["player_id"])

	hub := h.hubs.GetOrCreateHub(stream.PlayerTopic(playerID))
	stream.ServeSSE(w, r, hub, string(playerID))
}

// Socket handles GET /api/v1/games/{game_id}/ws?player_id=
func (h *StreamHandler) Socket(w http.ResponseWriter, r *http.Request) {
	gameID := gameIDFrom(r)
	playerID := model.PlayerID(r.URL.Query().Get("player_id"))
	if playerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	if !h.sessions.Exists(gameID) {
		WriteError(w, model.ErrUnknownGame)
		return
	}
	g, err := h.sessions.GetSession(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !g.HasPlayer(playerID) {
		WriteError(w, model.ErrUnknownPlayer)
		return
	}

	hub := h.hubs.GetOrCreateHub(stream.GameTopic(gameID))
	h.sockets.Serve(w, r, hub, gameID, playerID)
}
