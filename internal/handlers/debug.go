package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"elearn-chat-service/internal/auth"
	"elearn-chat-service/internal/observability"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, secret []byte, tokenTTL time.Duration, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/event-test", func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		event := observability.BuildWSEvent(
			observability.WSEventPayload{Kind: "debug", Event: "event_test", ConnID: uuid.NewString()},
			observability.WSIdentity{IP: observability.IPFromRequest(c.Request)},
			time.Now(),
		)
		if err := observability.PublishEvent(c.Request.Context(), "ws_events.debug", event, observability.BuildHeaders(requestID, "")); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event publish failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Mints a token for local websocket testing.
	router.GET("/debug/token", func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Query("user_id"))
		if err != nil || userID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		token, err := auth.SignToken(secret, userID, tokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})
}
