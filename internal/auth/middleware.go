package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/music-streaming-system/pkg/jwt"
	"github.com/music-streaming-system/pkg/redis"
)

// ContextExternalID is the gin context key holding the session's external
// identity, set by SessionMiddleware.
const ContextExternalID = "external_id"

// SessionMiddleware resolves the session cookie (or the token query param,
// used by the WebSocket endpoint) into an external identity. Requests without
// a valid session are rejected with 401.
func SessionMiddleware(sessions redis.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		session, err := sessions.GetSession(c.Request.Context(), claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		c.Set(ContextExternalID, session.ExternalID)
		c.Next()
	}
}
