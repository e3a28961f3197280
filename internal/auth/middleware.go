package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// Cookie the dashboard stores the operator token in
	TokenCookieName = "token"

	claimsContextKey = "operator_claims"
)

// AuthMiddleware validates the operator token from the session cookie or
// an Authorization bearer header and stores the claims in the context.
func (a *AuthService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		claims, err := a.jwtHandler.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// ClaimsFromContext returns the operator claims set by AuthMiddleware.
func ClaimsFromContext(c *gin.Context) (*OperatorClaims, bool) {
	if v, exists := c.Get(claimsContextKey); exists {
		if claims, ok := v.(*OperatorClaims); ok {
			return claims, true
		}
	}
	return nil, false
}
