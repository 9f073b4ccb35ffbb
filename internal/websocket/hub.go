package websocket

import (
	"encoding/json"
	"sync"
)

// Message is what connected staff receive: a type tag plus the event data.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type BalanceUpdate struct {
	Currency       string `json:"currency"`
	CashBalance    string `json:"cash_balance"`
	DigitalBalance string `json:"digital_balance"`
	TotalBalance   string `json:"total_balance"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToUser drops the message for any client whose buffer is full.
func (h *Hub) SendToUser(userID string, message Message) {
	payload, _ := json.Marshal(message)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		client.enqueue(payload)
	}
}

func (h *Hub) Broadcast(message Message) {
	payload, _ := json.Marshal(message)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for client := range clients {
			client.enqueue(payload)
		}
	}
}
