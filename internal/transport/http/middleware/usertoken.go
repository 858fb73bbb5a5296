package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pdfexchange/internal/pkg/usertoken"
	"pdfexchange/internal/transport/http/response"
)

const (
	HeaderUserToken     = "X-User-Token"
	ContextUserTokenKey = "user_token"
)

// RequireUserToken checks signature and expiry of the bearer credential.
// Resolving the token to a user row is left to the services; a valid token
// for a deleted user still fails there with Unauthorized.
func RequireUserToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(HeaderUserToken))
		if token == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing user token")
			c.Abort()
			return
		}

		if err := usertoken.Verify(secret, token); err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired user token")
			c.Abort()
			return
		}

		c.Set(ContextUserTokenKey, token)
		c.Next()
	}
}

// TokenFromContext returns the verified raw token set by RequireUserToken.
func TokenFromContext(c *gin.Context) (string, bool) {
	tokenAny, exists := c.Get(ContextUserTokenKey)
	if !exists {
		return "", false
	}
	token, ok := tokenAny.(string)
	return token, ok && token != ""
}
