package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"prize-pool-backend/internal/common/errors"
)

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetIdentity(c) == "" {
			RespondError(c, errors.NewUnauthorizedError("Telegram init data required"))
			return
		}
		c.Next()
	}
}

// RequireAdmin lets through only identities listed in adminIDs.
func RequireAdmin(adminIDs []string) gin.HandlerFunc {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == "" {
			RespondError(c, errors.NewUnauthorizedError("Telegram init data required"))
			return
		}
		if _, ok := admins[identity]; !ok {
			RespondError(c, errors.NewForbiddenError("admin access required"))
			return
		}
		c.Next()
	}
}
