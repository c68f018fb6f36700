package ws

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"elearn-chat-service/internal/observability"
	"elearn-chat-service/internal/repositories"
)

// CourseWebSocketHandler turns an upgrade request on a course route into
// an authenticated, room-scoped connection.
type CourseWebSocketHandler struct {
	hub     *Hub
	courses repositories.CourseRepository
	users   repositories.UserRepository
	ingest  *Ingest
	secret  []byte
}

// NewCourseWebSocketHandler constructs a CourseWebSocketHandler.
func NewCourseWebSocketHandler(hub *Hub, courses repositories.CourseRepository, users repositories.UserRepository, ingest *Ingest, secret []byte) *CourseWebSocketHandler {
	return &CourseWebSocketHandler{hub: hub, courses: courses, users: users, ingest: ingest, secret: secret}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates and authorizes the caller, then upgrades and
// registers the connection. An anonymous principal or an unauthorized
// user is refused before the upgrade completes.
func (h *CourseWebSocketHandler) Handle(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
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

	course, err := h.courses.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		} else {
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for course"})
		}
		return
	}

	allowed, err := h.courses.CanAccessCourse(ctx, course.ID, userID)
	if err != nil || !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for course"})
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

	room := CourseRoom(courseID)
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

	announceConnect("course", "ws_events.courses", room.Key(), info)

	go client.writePump()
	go client.readPump(h.ingest, func(closeErr error) {
		announceDisconnect("course", "ws_events.courses", room.Key(), info, closeErr)
	})
}

// announceConnect records and publishes a new room attachment.
func announceConnect(kind, routingKey, roomKey string, info ConnInfo) {
	observability.IncWSActive(kind)
	observability.IncWSEvent(kind, "ws_connect")
	event := observability.BuildWSEvent(
		observability.WSEventPayload{Kind: kind, RoomKey: roomKey, Event: "ws_connect", ConnID: info.ConnID},
		observability.WSIdentity{UserID: info.UserID, DeviceID: info.DeviceID, IP: info.IP},
		info.ConnectedAt,
	)
	_ = observability.PublishEvent(context.Background(), routingKey, event, observability.BuildHeaders(info.RequestID, info.TraceID))
}

// announceDisconnect records a teardown; abnormal transport failures are
// additionally counted as errors.
func announceDisconnect(kind, routingKey, roomKey string, info ConnInfo, closeErr error) {
	observability.DecWSActive(kind)
	observability.IncWSEvent(kind, "ws_disconnect")

	reason := ""
	if closeErr != nil {
		reason = closeErr.Error()
		observability.IncWSEvent(kind, "ws_error")
	}
	event := observability.BuildWSEvent(
		observability.WSEventPayload{Kind: kind, RoomKey: roomKey, Event: "ws_disconnect", ConnID: info.ConnID, Reason: reason},
		observability.WSIdentity{UserID: info.UserID, DeviceID: info.DeviceID, IP: info.IP},
		info.ConnectedAt,
	)
	_ = observability.PublishEvent(context.Background(), routingKey, event, observability.BuildHeaders(info.RequestID, info.TraceID))
}
