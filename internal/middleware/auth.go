package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-backend/internal/apperrors"
	"chat-backend/internal/auth"
)

// HeaderAuthenticator validates an Authorization header value.
type HeaderAuthenticator interface {
	Authenticate(ctx context.Context, header string) (auth.Principal, error)
}

const PrincipalKey = "principal"

// AuthMiddleware validates the bearer token and stores the caller as "userID".
func AuthMiddleware(authn HeaderAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.Message(err)})
			return
		}

		c.Set("userID", principal.UserID)
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}
