package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"teamline.app/pulse/common/session"
)

const principalKey = "pulse.principal"

// Principal is the authenticated caller extracted from the session token.
type Principal struct {
	Email       string
	UserID      int64
	WorkspaceID int64
}

// RequireSession verifies the Bearer token on every request and stores the
// resulting principal on the gin context.
func RequireSession(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := session.Parse(secret, token)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rejecting invalid session token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Set(principalKey, Principal{
			UserID:      userID,
			Email:       claims.Email,
			WorkspaceID: claims.WorkspaceID,
		})
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func currentPrincipal(c *gin.Context) Principal {
	p, _ := c.Get(principalKey)
	principal, _ := p.(Principal)
	return principal
}
