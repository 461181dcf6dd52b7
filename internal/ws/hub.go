package ws

import (
	"log"
	"sort"
	"sync"

	"chat-backend/internal/observability"
)

// Hub is the room registry: room key to subscribed connections, and each
// connection to the rooms it joined. One lock guards both maps so a join
// can never race a drop into a stale subscription.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]map[string]struct{}),
	}
}

// Register tracks a freshly authenticated connection with no rooms.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.isClosed() {
		return
	}
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[string]struct{})
	}
}

// Join subscribes c to room. Joining twice is a no-op. It reports false if
// the connection has already been dropped.
func (h *Hub) Join(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.isClosed() {
		return false
	}
	joined, ok := h.clients[c]
	if !ok {
		joined = make(map[string]struct{})
		h.clients[c] = joined
	}
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[*Client]struct{})
		h.rooms[room] = subs
	}
	subs[c] = struct{}{}
	joined[room] = struct{}{}
	return true
}

// Leave unsubscribes c from room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if subs, ok := h.rooms[room]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
	if joined, ok := h.clients[c]; ok {
		delete(joined, room)
	}
}

// DropConnection removes c from every room and closes its send queue.
// Safe to call more than once.
func (h *Hub) DropConnection(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.clients[c] {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
	c.close()
}

// EvictUser unsubscribes every connection of userID from room and reports how
// many were removed. Used when stored membership shrinks so live
// subscriptions follow it.
func (h *Hub) EvictUser(room string, userID int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	evicted := 0
	for c := range h.rooms[room] {
		if c.UserID() == userID {
			h.leaveLocked(c, room)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("ws evicted user from room: user_id=%d room=%s connections=%d", userID, room, evicted)
	}
	return evicted
}

// Shutdown drops every registered connection. Each writer sees its queue
// close and sends a close frame before exiting.
func (h *Hub) Shutdown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.clients)
	for c, rooms := range h.clients {
		for room := range rooms {
			h.leaveLocked(c, room)
		}
		delete(h.clients, c)
		c.close()
	}
	return n
}

// BroadcastToRoom queues event to every connection currently in room and
// returns how many accepted it. Connections whose queue is full are dropped.
// An empty or unknown room is a no-op.
func (h *Hub) BroadcastToRoom(room, event string, payload any) int {
	h.mu.RLock()
	subs := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return 0
	}

	frame, err := encodeFrame(event, payload)
	if err != nil {
		log.Printf("ws broadcast encode failed: room=%s event=%s err=%v", room, event, err)
		return 0
	}

	delivered := 0
	var slow []*Client
	for _, c := range subs {
		if c.enqueue(frame) {
			delivered++
			continue
		}
		if !c.isClosed() {
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		log.Printf("ws dropping slow connection: conn_id=%s user_id=%d room=%s", c.info.ConnID, c.info.UserID, room)
		h.DropConnection(c)
	}

	observability.ObserveBroadcast(event, delivered)
	return delivered
}

// Subscribers reports how many connections are in room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// RoomsOf lists the rooms c is subscribed to, sorted.
func (h *Hub) RoomsOf(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]string, 0, len(h.clients[c]))
	for room := range h.clients[c] {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// Stats summarizes the registry for the debug routes.
func (h *Hub) Stats() (connections, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients), len(h.rooms)
}
