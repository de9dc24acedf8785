package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Envelope wraps every message pushed to dashboard clients.
type Envelope struct {
	Type    string `json:"type"` // "batch", "alert", "history"
	Payload any    `json:"payload"`
}

// Hub maintains the set of connected dashboard clients and fans out
// batch results and alerts to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("websocket client connected: %s", client.Conn.RemoteAddr())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Client buffer full or client gone.
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// RegisterClient hands a new connection to the hub loop.
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// Broadcast pushes a typed payload to every connected client.
func (h *Hub) Broadcast(kind string, payload any) {
	message, err := json.Marshal(Envelope{Type: kind, Payload: payload})
	if err != nil {
		log.Printf("websocket: marshal %s payload: %v", kind, err)
		return
	}
	h.broadcast <- message
}
