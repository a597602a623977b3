package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/paddle-arena/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeDuplicateGame       = "DUPLICATE_GAME"
	CodeInvalidPlayers      = "INVALID_PLAYERS"
	CodeUnknownGame         = "UNKNOWN_GAME"
	CodeUnknownPlayer       = "UNKNOWN_PLAYER"
	CodeGameNotFound        = "GAME_NOT_FOUND"
	CodeMoveRejected        = "MOVE_REJECTED"
	CodeSessionClosed       = "SESSION_CLOSED"
	CodeChatNotPermitted    = "CHAT_NOT_PERMITTED"
	CodeChatGateUnavailable = "CHAT_GATE_UNAVAILABLE"
	CodeEmptyMessage        = "EMPTY_MESSAGE"
	CodeTimeout             = "TIMEOUT"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	if he.status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status code an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// FromError returns the code and message an error is reported with
func FromError(err error) APIError {
	return toHTTPError(err).apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var rejection *model.RejectionError
	if errors.As(err, &rejection) {
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeMoveRejected, rejection.Error()}}
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrDuplicateGame):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateGame, "Game already has a live session"}}
	case errors.Is(err, model.ErrInvalidPlayers):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPlayers, "Two distinct players are required"}}
	case errors.Is(err, model.ErrUnknownGame):
		return &httpError{http.StatusNotFound, APIError{CodeUnknownGame, "Unknown game"}}
	case errors.Is(err, model.ErrUnknownPlayer):
		return &httpError{http.StatusForbidden, APIError{CodeUnknownPlayer, "Player is not in this game"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrMoveRejected):
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeMoveRejected, "Move rejected"}}
	case errors.Is(err, model.ErrSessionClosed):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeSessionClosed, "Server is shutting down"}}
	case errors.Is(err, model.ErrChatNotPermitted):
		return &httpError{http.StatusForbidden, APIError{CodeChatNotPermitted, "Chat between these users is not permitted"}}
	case errors.Is(err, model.ErrChatGateUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeChatGateUnavailable, "Chat permission check unavailable, retry later"}}
	case errors.Is(err, model.ErrEmptyMessage):
		return &httpError{http.StatusBadRequest, APIError{CodeEmptyMessage, "Message body is empty"}}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Request timed out"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
