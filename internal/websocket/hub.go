package websocket

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans change notifications out to the connected clients of each
// user. Publishing never blocks; a slow client just misses an event and
// catches up through the snapshot protocol.
type Hub struct {
	clients    map[string]map[*Client]bool
	mu         sync.RWMutex
	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.Username]; !ok {
		h.clients[client.Username] = make(map[*Client]bool)
	}
	h.clients[client.Username][client] = true
	log.Printf("Client for user %s registered", client.Username)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if userClients, ok := h.clients[client.Username]; ok {
		if _, ok := userClients[client]; ok {
			delete(userClients, client)
			close(client.send)
			if len(userClients) == 0 {
				delete(h.clients, client.Username)
			}
			log.Printf("Client for user %s unregistered", client.Username)
		}
	}
}

func (h *Hub) Publish(username string, event []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if userClients, ok := h.clients[username]; ok {
		for client := range userClients {
			select {
			case client.send <- event:
			default:
				log.Printf("WARN: Client for user %s send buffer is full. Dropping message.", username)
			}
		}
	}
}
