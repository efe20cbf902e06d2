package api

import (
	"encoding/json"
	"net/http"

	"cloudbox/internal/auth"
)

type LoginRequest struct {
	Username string `json:"username" example:"alice@example.com"`
	Password string `json:"password" example:"password123"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// LoginHandler exchanges Basic-style credentials for a short-lived JWT,
// so sync clients do not have to keep the password in memory.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.core.Authenticate(req.Username, req.Password); err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	accessToken, err := auth.GenerateJWT(req.Username, s.config.JWT.Secret)
	if err != nil {
		http.Error(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: accessToken})
}
