package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"elearn-chat-service/internal/bus"
	"elearn-chat-service/internal/models"
)

// Hub is the room registry: it maps room keys to the set of live
// connections and owns fan-out. Joins, leaves and deliveries to one
// room synchronize on that room's own lock, so one busy room never
// serializes the others.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room

	broadcast bus.Bus
}

type room struct {
	mu      sync.Mutex
	members map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// SetBus installs the broadcast bus. Publishes then route through the
// bus and come back via Deliver, so members on other processes see the
// same frames. Without a bus, Publish delivers locally.
func (h *Hub) SetBus(b bus.Bus) {
	h.broadcast = b
}

// Join registers a connection under a room key. Idempotent.
func (h *Hub) Join(key string, c *Client) {
	h.mu.Lock()
	r, ok := h.rooms[key]
	if !ok {
		r = &room{members: make(map[*Client]struct{})}
		h.rooms[key] = r
	}
	r.mu.Lock()
	r.members[c] = struct{}{}
	r.mu.Unlock()
	h.mu.Unlock()
}

// Leave removes a connection from a room. The room entry is dropped
// once its member set empties; there is no persistent state to keep.
// Idempotent.
func (h *Hub) Leave(key string, c *Client) {
	h.mu.Lock()
	r, ok := h.rooms[key]
	if !ok {
		h.mu.Unlock()
		return
	}
	r.mu.Lock()
	delete(r.members, c)
	empty := len(r.members) == 0
	r.mu.Unlock()
	if empty {
		delete(h.rooms, key)
	}
	h.mu.Unlock()
}

// RoomSize reports the live member count of a room.
func (h *Hub) RoomSize(key string) int {
	h.mu.RLock()
	r, ok := h.rooms[key]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Publish fans a frame out to every member of the room, on this process
// and every other process bound to the broadcast bus.
func (h *Hub) Publish(ctx context.Context, key string, frame models.ChatFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if h.broadcast == nil {
		h.Deliver(key, payload)
		return nil
	}
	return h.broadcast.Publish(ctx, key, payload)
}

// Deliver hands a raw payload to every connection currently in the
// room. Delivery is non-blocking per member: a connection that cannot
// absorb the frame within its buffering allowance is dropped rather
// than allowed to stall the room. Holding the room lock across the
// member loop gives every member the same total order of frames.
func (h *Hub) Deliver(key string, payload []byte) {
	h.mu.RLock()
	r, ok := h.rooms[key]
	h.mu.RUnlock()
	if !ok {
		return
	}

	var dropped []*Client
	r.mu.Lock()
	for c := range r.members {
		if !c.enqueue(payload) {
			dropped = append(dropped, c)
		}
	}
	r.mu.Unlock()

	for _, c := range dropped {
		log.Printf("dropping slow websocket consumer room=%s conn=%s user=%d", key, c.ID, c.UserID)
		c.close()
	}
}

// Shutdown drains the hub by closing every connection, each of which
// takes its normal teardown path.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	var clients []*Client
	for _, r := range h.rooms {
		r.mu.Lock()
		for c := range r.members {
			clients = append(clients, c)
		}
		r.mu.Unlock()
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}
