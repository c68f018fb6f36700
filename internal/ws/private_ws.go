package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"elearn-chat-service/internal/observability"
	"elearn-chat-service/internal/repositories"
)

// PrivateWebSocketHandler handles upgrades for two-party rooms. The
// connecting user must be one of the room key's participants and the
// counterpart must resolve to a real account.
type PrivateWebSocketHandler struct {
	hub    *Hub
	users  repositories.UserRepository
	ingest *Ingest
	secret []byte
}

// NewPrivateWebSocketHandler constructs a PrivateWebSocketHandler.
func NewPrivateWebSocketHandler(hub *Hub, users repositories.UserRepository, ingest *Ingest, secret []byte) *PrivateWebSocketHandler {
	return &PrivateWebSocketHandler{hub: hub, users: users, ingest: ingest, secret: secret}
}

// Handle upgrades and registers a private room connection.
func (h *PrivateWebSocketHandler) Handle(c *gin.Context) {
	room, err := ParsePrivateRoomName(c.Param("room_name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room name"})
		return
	}

	ctx, span := otel.Tracer("elearn-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := authenticate(h.secret, c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if !room.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		return
	}

	exists, err := h.users.UserExists(ctx, room.Other(userID))
	if err != nil || !exists {
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown participant"})
		return
	}

	usr, err := h.users.GetUser(ctx, userID)
	if err != nil || !usr.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown or inactive user"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := newClient(h.hub, room, userID, usr.Username, conn)
	info := ConnInfo{
		ConnID:      client.ID,
		UserID:      userID,
		Username:    usr.Username,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Join(room.Key(), client)

	announceConnect("private", "ws_events.private", room.Key(), info)

	go client.writePump()
	go client.readPump(h.ingest, func(closeErr error) {
		announceDisconnect("private", "ws_events.private", room.Key(), info, closeErr)
	})
}
