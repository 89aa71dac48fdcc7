package wshub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ravisabhani/live-poll-battle/internal/events"
)

// Client represents a single WebSocket connection in the hub. Its ID doubles
// as the participant identifier for voting eligibility.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, 32),
	}
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub manages per-room WebSocket connections and room-wide fan-out.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // roomCode -> clientID -> client
	clientRoom map[string]string             // clientID -> roomCode
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		clientRoom: make(map[string]string),
	}
}

// Track registers a connected client before it has joined any room, so
// requester-only sends (join errors) can reach it.
func (h *Hub) Track(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// JoinRoom associates a tracked client with a room's broadcast group. A
// client belongs to at most one room; re-joining moves it.
func (h *Hub) JoinRoom(roomCode, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return
	}

	if prev, ok := h.clientRoom[clientID]; ok && prev != roomCode {
		h.leaveLocked(prev, clientID)
	}

	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[string]*Client)
	}
	h.rooms[roomCode][clientID] = c
	h.clientRoom[clientID] = roomCode
}

// Remove drops a client from the hub and closes its Send channel.
func (h *Hub) Remove(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	if room, ok := h.clientRoom[clientID]; ok {
		h.leaveLocked(room, clientID)
	}
	delete(h.clients, clientID)
	close(c.Send)
}

func (h *Hub) leaveLocked(roomCode, clientID string) {
	if members, ok := h.rooms[roomCode]; ok {
		delete(members, clientID)
		// Clean up empty room groups
		if len(members) == 0 {
			delete(h.rooms, roomCode)
		}
	}
	delete(h.clientRoom, clientID)
}

// Broadcast sends an event to every client in a room. Non-blocking: a client
// whose send buffer is full misses the message rather than stalling the room.
func (h *Hub) Broadcast(roomCode string, ev events.ServerEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("room", roomCode).Msg("marshal broadcast event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.rooms[roomCode] {
		select {
		case c.Send <- data:
		default:
			log.Debug().Str("room", roomCode).Str("client", id).Msg("send buffer full, dropping event")
		}
	}
}

// SendTo delivers an event to a single tracked client.
func (h *Hub) SendTo(clientID string, ev events.ServerEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("client", clientID).Msg("marshal direct event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Debug().Str("client", clientID).Msg("send buffer full, dropping event")
	}
}

// RoomSize reports how many clients are joined to a room.
func (h *Hub) RoomSize(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}
