// Package httputil centralizes the JSON envelopes the HTTP transport speaks.
package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the standard error envelope. The description is omitted
// for 5xx statuses so internals do not leak to callers.
func WriteError(w http.ResponseWriter, status int, code, description string) {
	body := map[string]string{"error": code}
	if description != "" && status < http.StatusInternalServerError {
		body["error_description"] = description
	}
	WriteJSON(w, status, body)
}

// Decode parses the request body into T, answering 400 on malformed input.
// The second result reports whether decoding succeeded.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return v, false
	}
	return v, true
}
