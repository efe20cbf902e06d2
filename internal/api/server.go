package api

import (
	"cloudbox/internal/config"
	"cloudbox/internal/core"
	"cloudbox/internal/websocket"
)

type Server struct {
	config *config.Config
	core   *core.Service
	wsHub  *websocket.Hub
}

func NewServer(cfg *config.Config, svc *core.Service, wsHub *websocket.Hub) *Server {
	return &Server{
		config: cfg,
		core:   svc,
		wsHub:  wsHub,
	}
}
