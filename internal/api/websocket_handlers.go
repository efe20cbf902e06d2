package api

import (
	"log"
	"net/http"

	"cloudbox/internal/auth"
	"cloudbox/internal/websocket"
)

// ServeWsHandler upgrades a sync client to a websocket feed of change
// events. The token query parameter carries a JWT from the login
// endpoint, since browsers cannot set headers on websocket dials.
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		log.Println("WS connection attempt without token")
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	claims, err := auth.VerifyJWT(tokenString, s.config.JWT.Secret)
	if err != nil {
		log.Printf("WS connection attempt with invalid token: %v", err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	client := websocket.NewClient(s.wsHub, conn, claims.Username)
	s.wsHub.Register <- client

	go client.ReadPump()
	go client.WritePump()
}
