package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloudbox/internal/core"
)

// respondShareError maps core errors to the share endpoints' contract:
// an unknown resource, share or beneficiary is a client mistake (400),
// not a 404.
func respondShareError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "The specified file or directory is not present", http.StatusBadRequest)
	case errors.Is(err, core.ErrInvalidBeneficiary):
		http.Error(w, "Beneficiary user not found", http.StatusBadRequest)
	case errors.Is(err, core.ErrInvalidPath), errors.Is(err, core.ErrForbidden):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("ERROR: share operation failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// CreateShareHandler grants a beneficiary access to the wildcard path.
// Form fields: beneficiary (required), access ("read" default, "write").
func (s *Server) CreateShareHandler(w http.ResponseWriter, r *http.Request) {
	username := GetUserFromContext(r.Context())
	sharePath := chi.URLParam(r, "*")

	beneficiary := r.FormValue("beneficiary")
	if beneficiary == "" {
		http.Error(w, "beneficiary is required", http.StatusBadRequest)
		return
	}
	access := r.FormValue("access")
	if access == "" {
		access = "read"
	}
	if access != "read" && access != "write" {
		http.Error(w, "Invalid access value. Must be 'read' or 'write'", http.StatusBadRequest)
		return
	}

	ts, err := s.core.CreateShare(username, sharePath, beneficiary, access == "write")
	if err != nil {
		respondShareError(w, err)
		return
	}
	writeTimestamp(w, http.StatusOK, ts)
}

// RemoveShareHandler revokes sharing on the wildcard path. With a
// beneficiary query parameter only that user is removed; without one the
// whole share is dissolved.
func (s *Server) RemoveShareHandler(w http.ResponseWriter, r *http.Request) {
	username := GetUserFromContext(r.Context())
	sharePath := chi.URLParam(r, "*")

	var ts int64
	var err error
	if beneficiary := r.URL.Query().Get("beneficiary"); beneficiary != "" {
		ts, err = s.core.RemoveBeneficiary(username, sharePath, beneficiary)
	} else {
		ts, err = s.core.RemoveShare(username, sharePath)
	}
	if err != nil {
		respondShareError(w, err)
		return
	}
	writeTimestamp(w, http.StatusOK, ts)
}
