package middleware

import (
	"context"
	"net/http"
	"strings"

	"smovers/models"
	"smovers/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by JWTAuthMiddleware.
const (
	CtxAccountID = "accountID"
	CtxRole      = "role"
	CtxEmail     = "email"
	CtxToken     = "sessionToken"
)

// SessionChecker reports whether a session token has been logged out.
type SessionChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// JWTAuthMiddleware requires a valid, non-revoked session token whose role is
// one of roles. With no roles any authenticated account passes.
func JWTAuthMiddleware(sessions SessionChecker, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		// Validate the token signature and expiration.
		claims, err := utils.ParseSessionToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		role := models.Role(claims.Role)
		if !role.Valid() || !roleAllowed(role, roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient authorization"})
			return
		}

		revoked, err := sessions.IsRevoked(c.Request.Context(), tokenString)
		if err != nil {
			// Fail open on a cache outage, the signature is already verified.
			utils.GetLogger().Warn("session revocation check failed", zap.Error(err))
		} else if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session has ended"})
			return
		}

		c.Set(CtxAccountID, claims.Subject)
		c.Set(CtxRole, role)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxToken, tokenString)
		c.Next()
	}
}

func roleAllowed(role models.Role, allowed []models.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// CurrentAccount returns the authenticated account id and role.
func CurrentAccount(c *gin.Context) (string, models.Role) {
	id := c.GetString(CtxAccountID)
	role, _ := c.Get(CtxRole)
	r, _ := role.(models.Role)
	return id, r
}
