package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/proximachat/proxima/internal/auth"
	"github.com/proximachat/proxima/internal/common"
)

const (
	UserIDKey    = "user_id"
	TokenKey     = "token"
	RequestIDKey = "request_id"
)

// Denylist reports whether a token has been revoked (logout). A nil Denylist
// disables the check.
type Denylist interface {
	IsDenied(ctx context.Context, token string) (bool, error)
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v", r)
				common.Fail(c, http.StatusInternalServerError, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// AuthRequired validates the bearer token and stores the user id in the
// context. Denylisted tokens are rejected exactly like expired ones.
func AuthRequired(secret string, denylist Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := auth.ParseJWT(token, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		if denylist != nil {
			denied, err := denylist.IsDenied(c.Request.Context(), token)
			if err != nil {
				log.Printf("denylist check failed: %v", err)
			} else if denied {
				common.Fail(c, http.StatusUnauthorized, "unauthorized")
				c.Abort()
				return
			}
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(TokenKey, token)
		c.Next()
	}
}
