package ws

import (
	"encoding/json"
	"sync"

	"gameroom/internal/logger"
)

// Hub tracks connected clients and their room membership, and delivers the
// lobby's outbound events. It implements lobby.Emitter. Sends are
// non-blocking: a client whose buffer is full loses the frame rather than
// stalling a broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[int]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[int]map[string]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	for roomID, members := range h.rooms {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
}

// EmitUser sends one event to one session. Unknown sessions are a no-op.
func (h *Hub) EmitUser(userID string, event string, data any) {
	h.mu.RLock()
	c := h.clients[userID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	if msg, ok := h.encode(event, data); ok {
		c.trySend(msg)
	}
}

// EmitRoom sends one event to every current member of the room.
func (h *Hub) EmitRoom(roomID int, event string, data any) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		if c, ok := h.clients[id]; ok {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()
	if len(members) == 0 {
		return
	}
	msg, ok := h.encode(event, data)
	if !ok {
		return
	}
	for _, c := range members {
		c.trySend(msg)
	}
}

func (h *Hub) JoinRoom(userID string, roomID int) {
	h.mu.Lock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[userID] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) LeaveRoom(userID string, roomID int) {
	h.mu.Lock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) CloseRoom(roomID int) {
	h.mu.Lock()
	delete(h.rooms, roomID)
	h.mu.Unlock()
}

// RoomMembers returns a snapshot of the session IDs in the room.
func (h *Hub) RoomMembers(roomID int) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		out = append(out, id)
	}
	return out
}

func (h *Hub) encode(event string, data any) ([]byte, bool) {
	msg, err := json.Marshal(Envelope{Type: event, Data: data})
	if err != nil {
		logger.Error("event encode failed", "event", event, "error", err)
		return nil, false
	}
	return msg, true
}
