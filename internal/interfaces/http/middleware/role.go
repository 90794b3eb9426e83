package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rental/backend/internal/domain/identity"
)

// RequireRole rejects callers whose session role is not one of roles.
// It must run after the JWT middleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		session, ok := identity.SessionFrom(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_UNAUTHORIZED",
					"message": "Authentication required",
				},
			})
			return
		}
		if _, ok := allowed[session.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_FORBIDDEN",
					"message": "This action is not allowed for role " + string(session.Role),
				},
			})
			return
		}
		c.Next()
	}
}

// RequireLandlord admits landlords only
func RequireLandlord() gin.HandlerFunc {
	return RequireRole(identity.RoleLandlord)
}
