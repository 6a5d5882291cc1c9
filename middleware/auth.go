package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abeme/echospace/utils"
)

// Auth rejects requests without a valid bearer token and stores the
// verified username in the gin context for downstream handlers.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated", "success": false})
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated", "success": false})
			return
		}
		claims, err := utils.ValidateToken(secret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token", "success": false})
			return
		}
		c.Set("username", claims.Username)
		c.Next()
	}
}

// Username returns the identity the auth middleware attached.
func Username(c *gin.Context) string {
	v, _ := c.Get("username")
	s, _ := v.(string)
	return s
}
