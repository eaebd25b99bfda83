package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/exitprep/exitprep-backend/internal/response"
	"github.com/exitprep/exitprep-backend/internal/service"
)

// CheckSession validates the JWT's JTI against the session key in Redis.
// A token whose key was deleted by sign-out is rejected even though its
// signature is still valid. Guests (no claims) pass through untouched.
func CheckSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.Next()
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}
		c.Next()
	}
}
