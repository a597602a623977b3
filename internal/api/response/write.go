package response

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// encodeFailure matches the body apierr writes for internal errors
const encodeFailure = `{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}` + "\n"

// JSON writes data with the given status. The body is encoded before the
// header goes out, so a value that cannot be encoded yields a 500 instead of
// a truncated body under the original status.
func JSON(w http.ResponseWriter, status int, data any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")

	if data == nil {
		w.WriteHeader(status)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailure))
		return
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NoContent writes a bare 204
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
