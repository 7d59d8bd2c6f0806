package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"prize-pool-backend/internal/common/errors"
	"prize-pool-backend/internal/common/logger"
)

// Context keys set by TelegramInitData.
const (
	UserKey     = "user"
	IdentityKey = "identity"
)

const InitDataHeader = "X-Telegram-Init-Data"

// TelegramInitData validates Telegram Mini App init-data and stores the
// caller's identity (the Telegram user id) in the context.
// Init-data is read from the X-Telegram-Init-Data header, then the legacy
// init_data header, then the init_data query parameter.
func TelegramInitData(botToken string, expIn time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if botToken == "" {
			RespondError(c, errors.New(errors.ErrCodeInternal, "init-data validation is not configured"))
			return
		}

		raw := c.GetHeader(InitDataHeader)
		if raw == "" {
			raw = c.GetHeader("init_data")
		}
		if raw == "" {
			raw = c.Query("init_data")
		}
		if raw == "" {
			RespondError(c, errors.NewUnauthorizedError("Telegram init data required"))
			return
		}

		if err := initdata.Validate(raw, botToken, expIn); err != nil {
			logger.Debug().Err(err).Msg("Init data validation failed")
			RespondError(c, errors.NewUnauthorizedError("invalid init data"))
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil {
			RespondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid init data format"))
			return
		}
		if parsed.User.ID == 0 {
			RespondError(c, errors.NewUnauthorizedError("init data carries no user"))
			return
		}

		c.Set(UserKey, parsed.User)
		c.Set(IdentityKey, strconv.FormatInt(parsed.User.ID, 10))
		c.Next()
	}
}

// GetIdentity returns the authenticated caller, or "" when unauthenticated.
func GetIdentity(c *gin.Context) string {
	return c.GetString(IdentityKey)
}
