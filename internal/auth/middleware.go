// Package auth provides the X-API-Key gin middleware guarding the
// admin and message-sending endpoints.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smsgrid/sms-gateway/internal/keystore"
)

// APIKeyHeader carries the credential on every secured request.
const APIKeyHeader = "X-API-Key"

// RequireAdmin rejects requests whose key is not an admin key.
func RequireAdmin(keys *keystore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !keys.IsAdminKey(c.GetHeader(APIKeyHeader)) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// RequireMessageSender rejects requests whose key may not send
// messages. Admin keys pass as well.
func RequireMessageSender(keys *keystore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !keys.IsMessageKey(c.GetHeader(APIKeyHeader)) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
