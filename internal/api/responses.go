package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cloudbox/internal/core"
)

// TimestampResponse carries a mutation's completion time so clients can
// correlate their request with later snapshot timestamps.
type TimestampResponse struct {
	Timestamp int64 `json:"timestamp" example:"1723480000123"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeTimestamp(w http.ResponseWriter, status int, ts int64) {
	writeJSON(w, status, TimestampResponse{Timestamp: ts})
}

// respondCoreError maps a core error kind to the HTTP contract used by
// the file and action endpoints.
func respondCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidPath),
		errors.Is(err, core.ErrBadDigest),
		errors.Is(err, core.ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, core.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, core.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("ERROR: internal failure: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
