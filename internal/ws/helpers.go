package ws

import (
	"strings"

	"github.com/gin-gonic/gin"

	"elearn-chat-service/internal/auth"
)

// bearerToken pulls the credential from the Authorization header or,
// because browsers cannot attach headers to websocket upgrades, from
// the token query parameter.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return c.Query("token")
}

// authenticate resolves the connecting principal. Any missing or
// invalid credential resolves to the anonymous principal (user id 0);
// the authorization step decides what that means for the handshake.
func authenticate(secret []byte, c *gin.Context) int {
	token := bearerToken(c)
	if token == "" {
		return 0
	}
	userID, err := auth.VerifyToken(secret, token)
	if err != nil {
		return 0
	}
	return userID
}
