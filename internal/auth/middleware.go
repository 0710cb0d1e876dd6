package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxSessionClaims = "skillswap_session_claims"

// RequireUser returns a Gin middleware that enforces a valid session Bearer
// token. On success it injects the *SessionClaims into the context.
func RequireUser(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer session token required",
			})
			return
		}
		claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired session token",
			})
			return
		}
		c.Set(ctxSessionClaims, claims)
		c.Next()
	}
}

// ClaimsFromCtx retrieves the session claims injected by RequireUser.
// Returns nil if no session token is present in the context.
func ClaimsFromCtx(c *gin.Context) *SessionClaims {
	v, _ := c.Get(ctxSessionClaims)
	claims, _ := v.(*SessionClaims)
	return claims
}

// UserIDFromCtx returns the authenticated user's ID, or "" when the
// request carries no session.
func UserIDFromCtx(c *gin.Context) string {
	if claims := ClaimsFromCtx(c); claims != nil {
		return claims.UserID
	}
	return ""
}
