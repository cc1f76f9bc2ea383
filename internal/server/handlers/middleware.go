package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/service/auth"
)

const sessionKey = "session"

// SessionResumer rebuilds a session from a bearer token.
type SessionResumer interface {
	Resume(ctx context.Context, token string) (*auth.Session, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resumed session in the gin context.
func RequireAuth(svc SessionResumer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			RespondError(c, logger, models.ErrUnauthorized)
			return
		}

		sess, err := svc.Resume(c.Request.Context(), token)
		if err != nil {
			RespondError(c, logger, err)
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// RequireRole lets through the listed roles and admins.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if sess == nil {
			RespondError(c, nil, models.ErrUnauthorized)
			return
		}

		role := sess.Role()
		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		RespondError(c, nil, models.ErrForbidden)
	}
}

func sessionFrom(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*auth.Session)
	return sess
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	// downloads opened in a new tab cannot set headers
	return c.Query("token")
}
