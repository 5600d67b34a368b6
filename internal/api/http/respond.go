package apihttp

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes value as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// RespondError writes err with the status produced by status, defaulting
// to 500.
func RespondError(w http.ResponseWriter, err error, status StatusFunc) {
	code := http.StatusInternalServerError
	if status != nil {
		if mapped := status(err); mapped != 0 {
			code = mapped
		}
	}
	http.Error(w, err.Error(), code)
}
