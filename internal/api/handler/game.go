package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/paddle-arena/internal/api/request"
	"github.com/mcoot/paddle-arena/internal/api/response"
	"github.com/mcoot/paddle-arena/internal/model"
)

// Sessions is the registry surface the game endpoints drive
type Sessions interface {
	CreateSession(ctx context.Context, gameID model.GameID, playerA, playerB model.PlayerID) (*model.GameSession, error)
	GetSession(ctx context.Context, gameID model.GameID) (*model.GameSession, error)
	ListSessions(ctx context.Context) []*model.GameSession
	RemoveSession(ctx context.Context, gameID model.GameID) error
	RouteMove(ctx context.Context, input model.PaddleMoveInput) error
	MarkReady(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.GameSession, error)
	Disconnect(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error
	ScheduleReadyTimeout(gameID model.GameID)
	CancelReadyTimeout(gameID model.GameID)
	ReadyTimeoutPending(gameID model.GameID) bool
	Exists(gameID model.GameID) bool
}

// GameHandler handles game session endpoints
type GameHandler struct {
	sessions Sessions
}

// NewGameHandler creates a new game handler
func NewGameHandler(sessions Sessions) *GameHandler {
	return &GameHandler{sessions: sessions}
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	gameID := model.GameID(req.GameID)
	if gameID == "" {
		gameID = model.GameID(uuid.NewString())
	}

	g, err := h.sessions.CreateSession(r.Context(), gameID, model.PlayerID(req.PlayerA), model.PlayerID(req.PlayerB))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionFromModel(g))
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.SessionListFromModel(h.sessions.ListSessions(r.Context())))
}

// Get handles GET /api/v1/games/{game_id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.sessions.GetSession(r.Context(), gameIDFrom(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(g))
}

// Delete handles DELETE /api/v1/games/{game_id}
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.RemoveSession(r.Context(), gameIDFrom(r)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Move handles POST /api/v1/games/{game_id}/moves
func (h *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req request.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.DeltaTime == nil {
		WriteError(w, NewInvalidRequestError("delta_time is required"))
		return
	}

	gameID := gameIDFrom(r)
	if req.GameID != "" && model.GameID(req.GameID) != gameID {
		WriteError(w, NewInvalidRequestError("game_id does not match the path"))
		return
	}

	err := h.sessions.RouteMove(r.Context(), model.PaddleMoveInput{
		GameID:    gameID,
		PlayerID:  model.PlayerID(req.PlayerID),
		Direction: model.Direction(req.Direction),
		DeltaTime: *req.DeltaTime,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Ready handles POST /api/v1/games/{game_id}/ready
func (h *GameHandler) Ready(w http.ResponseWriter, r *http.Request) {
	playerID, ok := decodePlayer(w, r)
	if !ok {
		return
	}

	g, err := h.sessions.MarkReady(r.Context(), gameIDFrom(r), playerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(g))
}

// Disconnect handles POST /api/v1/games/{game_id}/disconnect
func (h *GameHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	playerID, ok := decodePlayer(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Disconnect(r.Context(), gameIDFrom(r), playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// ScheduleReadyTimeout handles POST /api/v1/games/{game_id}/ready-timeout.
// Scheduling for a game with no session is accepted; its expiry is ignored.
func (h *GameHandler) ScheduleReadyTimeout(w http.ResponseWriter, r *http.Request) {
	gameID := gameIDFrom(r)
	h.sessions.ScheduleReadyTimeout(gameID)

	response.JSON(w, http.StatusAccepted, response.ReadyTimeout{
		GameID:  string(gameID),
		Pending: h.sessions.ReadyTimeoutPending(gameID),
	})
}

// CancelReadyTimeout handles DELETE /api/v1/games/{game_id}/ready-timeout
func (h *GameHandler) CancelReadyTimeout(w http.ResponseWriter, r *http.Request) {
	h.sessions.CancelReadyTimeout(gameIDFrom(r))
	response.NoContent(w)
}

// GetReadyTimeout handles GET /api/v1/games/{game_id}/ready-timeout
func (h *GameHandler) GetReadyTimeout(w http.ResponseWriter, r *http.Request) {
	gameID := gameIDFrom(r)
	response.JSON(w, http.StatusOK, response.ReadyTimeout{
		GameID:  string(gameID),
		Pending: h.sessions.ReadyTimeoutPending(gameID),
	})
}

func gameIDFrom(r *http.Request) model.GameID {
	return model.GameID(mux.Vars(r)["game_id"])
}

func decodePlayer(w http.ResponseWriter, r *http.Request) (model.PlayerID, bool) {
	var req request.PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return "", false
	}
	if req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return "", false
	}
	return model.PlayerID(req.PlayerID), true
}
