package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON serializes v to the response with the given status code. Encoding
// errors are swallowed: the status line has already been written, so the best
// we can do is truncate the body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
