package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/paddle-arena/internal/api/apierr"
	"github.com/mcoot/paddle-arena/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// Panics become JSON internal errors.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
