package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

const userContextKey = "user"

// TelegramInitData validates the Telegram Mini App init_data header and puts
// the parsed user into the request context.
func TelegramInitData(botToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("init_data")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Telegram Init Data required"})
			return
		}

		// Expiration check disabled: the admin mini-app keeps sessions open
		// far longer than the default TTL.
		if err := initdata.Validate(raw, botToken, 0); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": fmt.Sprintf("Invalid init data: %v", err)})
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to parse init data: %v", err)})
			return
		}

		c.Set(userContextKey, parsed.User)
		c.Next()
	}
}

// RequireAdmin only lets the configured organizer accounts through.
func RequireAdmin(adminIDs []int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get(userContextKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Telegram Init Data required"})
			return
		}

		telegramUser, ok := user.(initdata.User)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid user data format"})
			return
		}

		for _, adminID := range adminIDs {
			if telegramUser.ID == adminID {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
	}
}

// UserID returns the authenticated Telegram user id, or 0 when the request
// was not authenticated.
func UserID(c *gin.Context) int64 {
	user, exists := c.Get(userContextKey)
	if !exists {
		return 0
	}
	if telegramUser, ok := user.(initdata.User); ok {
		return telegramUser.ID
	}
	return 0
}
