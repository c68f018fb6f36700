package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"elearn-chat-service/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// sendBuffer bounds how far a slow consumer may fall behind before
	// it is dropped instead of delaying the rest of the room.
	sendBuffer = 64
)

// Client is one live websocket connection, bound to a single room for
// its whole lifetime.
type Client struct {
	ID       string
	Room     Room
	UserID   int
	Username string

	hub       *Hub
	conn      *websocket.Conn
	closeOnce sync.Once

	// sendMu guards send against a concurrent close: the client's own
	// read loop may still be reporting an error while a slow-consumer
	// drop or a shutdown tears the connection down.
	sendMu sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(hub *Hub, room Room, userID int, username string, conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.NewString(),
		Room:     room,
		UserID:   userID,
		Username: username,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
}

// enqueue offers a payload to the client's outbound buffer without
// blocking. It reports false when the buffer is full or the connection
// is already closed.
func (c *Client) enqueue(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// sendError reports a failure to this connection only. Other room
// members never learn that a failed attempt occurred.
func (c *Client) sendError(text string) {
	payload, err := json.Marshal(models.ErrorFrame{Error: text})
	if err != nil {
		return
	}
	c.enqueue(payload)
}

// close deregisters the client and releases the transport. The send
// channel closes under sendMu with the closed flag set, so a late
// enqueue from any path becomes a no-op instead of a send on a closed
// channel. Safe to call from any exit path, any number of times.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.hub.Leave(c.Room.Key(), c)
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump consumes inbound frames until the transport fails or the
// client goes away, then tears the connection down. onClose runs with
// the transport error (nil for a clean close) before deregistration.
func (c *Client) readPump(ingest *Ingest, onClose func(err error)) {
	defer func() {
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			if onClose != nil {
				onClose(err)
			}
			return
		}
		ingest.HandleInbound(c, raw)
	}
}

// writePump drains the outbound buffer onto the transport and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
