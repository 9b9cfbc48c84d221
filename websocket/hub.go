package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"

	"oceanwatch/models"
)

// Hub manages WebSocket connections and broadcasts lifecycle events to the
// moderation screen: new submissions and status transitions.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages to all clients
	broadcast chan []byte

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mutex sync.RWMutex

	connectedClients int
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			log.Infof("Listener connected. Total clients: %d", h.connectedClients)

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			log.Infof("Listener disconnected. Total clients: %d", h.connectedClients)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
		}
	}
}

// BroadcastSubmitted announces a freshly submitted report.
func (h *Hub) BroadcastSubmitted(report models.Report) {
	h.send("report_submitted", report)
}

// StatusChange carries a moderation transition to listeners.
type StatusChange struct {
	Report     models.Report `json:"report"`
	PrevStatus models.Status `json:"prev_status"`
}

// BroadcastStatusChange announces a moderation transition.
func (h *Hub) BroadcastStatusChange(report models.Report, prev models.Status) {
	h.send("status_changed", StatusChange{Report: report, PrevStatus: prev})
}

func (h *Hub) send(msgType string, data interface{}) {
	message := models.BroadcastMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Failed to marshal broadcast message: %v", err)
		return
	}

	h.broadcast <- payload
}

// GetStats returns the current number of connected clients.
func (h *Hub) GetStats() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients
}
