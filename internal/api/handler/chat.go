package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/paddle-arena/internal/api/request"
	"github.com/mcoot/paddle-arena/internal/api/response"
	"github.com/mcoot/paddle-arena/internal/model"
)

const defaultHistoryLimit = 50

// Chat is the chat service surface
type Chat interface {
	Send(ctx context.Context, sender, recipient model.PlayerID, body string) (*model.ChatMessage, error)
	History(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.ChatMessage, error)
}

// ChatHandler handles chat endpoints
type ChatHandler struct {
	chat Chat
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat Chat) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Send handles POST /api/v1/chat/messages
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req request.SendChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	msg, err := h.chat.Send(r.Context(), model.PlayerID(req.SenderID), model.PlayerID(req.RecipientID), req.Body)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ChatMessageFromModel(msg))
}

// History handles GET /api/v1/players/{player_id}/messages?limit=N
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	messages, err := h.chat.History(r.Context(), playerID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.ChatHistory{Messages: make([]response.ChatMessage, 0, len(messages))}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, response.ChatMessageFromModel(m))
	}
	response.JSON(w, http.StatusOK, resp)
}
