package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/FernanDeHoyos/api-rick/internal/model"

	"github.com/gin-gonic/gin"
)

// SessionResolver maps an opaque session token to a user id.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (uint, error)
}

// UserLoader materializes the session's current user.
type UserLoader interface {
	LoadByID(ctx context.Context, id uint) (*model.User, error)
}

// SessionAuth rejects anonymous requests and puts the authenticated
// user's id into the gin context. No protected handler runs without it.
func SessionAuth(sessions SessionResolver, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			c.Abort()
			return
		}

		userID, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			c.Abort()
			return
		}

		// The session may outlive the account; verify the user still exists.
		user, err := users.LoadByID(c.Request.Context(), userID)
		if err != nil || user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			c.Abort()
			return
		}

		c.Set("userID", int(user.ID))
		c.Next()
	}
}

// BearerToken extracts the session token from the Authorization header.
// Returns "" when the header is missing or malformed.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
