package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ngoinfo/copilot/internal/usercontext"
)

const ContextUserIDKey = "user_id"

// Middleware authenticates bearer tokens and injects the user id into the
// request context. Requests without a valid token are rejected upstream by
// the error handling middleware.
func Middleware(v *SessionValidator, abort func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			abort(c, ErrMissingToken)
			return
		}

		claims, err := v.ValidateToken(header[len("bearer "):])
		if err != nil {
			abort(c, err)
			return
		}

		userID := claims.StableUserID()
		c.Set(ContextUserIDKey, userID)
		c.Request = c.Request.WithContext(usercontext.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
