package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloudbox/internal/core"
)

// RegisterHandler creates a pending account and mails its activation
// code. 409 when the identity is already active or already pending and
// unexpired; 400 without a password.
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	password := r.FormValue("psw")

	err := s.core.Register(username, password)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusCreated)
	case errors.Is(err, core.ErrBadRequest):
		http.Error(w, "Password is required", http.StatusBadRequest)
	case errors.Is(err, core.ErrConflict):
		http.Error(w, "User already exists or is pending activation", http.StatusConflict)
	default:
		log.Printf("ERROR: failed to register %s: %v", username, err)
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
	}
}

// ActivateHandler promotes a pending account with its mailed code.
func (s *Server) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	code := r.FormValue("code")

	err := s.core.Activate(username, code)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusCreated)
	case errors.Is(err, core.ErrBadRequest):
		http.Error(w, "Activation code is required and must have the mailed length", http.StatusBadRequest)
	case errors.Is(err, core.ErrConflict):
		http.Error(w, "User is already active", http.StatusConflict)
	case errors.Is(err, core.ErrBadCode):
		http.Error(w, "Unknown user or wrong activation code", http.StatusBadRequest)
	default:
		log.Printf("ERROR: failed to activate %s: %v", username, err)
		http.Error(w, "Failed to activate user", http.StatusInternalServerError)
	}
}

type CurrentUserResponse struct {
	Username string `json:"username" example:"alice@example.com"`
}

func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	username := GetUserFromContext(r.Context())
	if username == "" {
		http.Error(w, "Could not retrieve user from request", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, CurrentUserResponse{Username: username})
}

// DeleteAccountHandler destroys the acting user's account, cascading over
// owned shares and share memberships.
func (s *Server) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	username := GetUserFromContext(r.Context())

	if err := s.core.DeleteUser(username); err != nil {
		respondCoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
