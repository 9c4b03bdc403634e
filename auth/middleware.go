package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// claimsKey is the gin context key the middleware stores validated claims
// under.
const claimsKey = "partnerClaims"

// extractToken strips the "Bearer " prefix from an Authorization header.
// Headers without the Bearer scheme are rejected outright.
func extractToken(authHeader string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) || len(authHeader) == len(prefix) {
		return "", false
	}
	return authHeader[len(prefix):], true
}

// RequirePartner rejects requests without a valid partner bearer token. The
// body is plain text: the frontend shows res.text() and tears down its session
// on any 401.
func RequirePartner(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.String(http.StatusUnauthorized, "authorization header is required")
			c.Abort()
			return
		}

		tokenString, ok := extractToken(authHeader)
		if !ok {
			c.String(http.StatusUnauthorized, "authorization header must use the Bearer scheme")
			c.Abort()
			return
		}

		claims, err := svc.ValidateToken(tokenString)
		if err != nil {
			c.String(http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// PartnerClaims returns the claims stored by RequirePartner, or nil outside a
// protected route.
func PartnerClaims(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
