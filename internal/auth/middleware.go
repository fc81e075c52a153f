package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const contextKeyOwnerID = "owner_id"

// OwnerIDFromContext returns the current owner ID set by RequireAuth.
// uuid.Nil if not set.
func OwnerIDFromContext(c *gin.Context) uuid.UUID {
	v, ok := c.Get(contextKeyOwnerID)
	if !ok {
		return uuid.Nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

// RequireAuth returns a middleware that verifies the Authorization bearer
// token and sets the owner ID in context. Missing or invalid credentials get
// 401 before any store operation runs.
func RequireAuth(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		ownerID, err := issuer.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		c.Set(contextKeyOwnerID, ownerID)
		c.Next()
	}
}
