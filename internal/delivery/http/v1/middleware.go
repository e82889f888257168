package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDCtxKey    = "user_id"
	userEmailCtxKey = "user_email"
)

// HandleAuthMiddleware gates task routes behind a bearer token. On
// success the decoded identity is attached to the request context
// for downstream handlers.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Error().Msg("invalid authorization header")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	identity, err := h.auth.VerifyToken(parts[1])
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to verify token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	c.Set(userIDCtxKey, identity.UserID)
	c.Set(userEmailCtxKey, identity.Email)
	c.Next()
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}
