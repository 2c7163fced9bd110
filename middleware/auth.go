package middleware

import (
	"net/http"
	"strings"

	"go-splendor/utils"

	"github.com/gin-gonic/gin"
)

// PlayerIDKey 鉴权通过后写入 gin.Context 的玩家 ID
const PlayerIDKey = "player_id"

// AuthMiddleware 校验 Authorization: Bearer <access token>
func AuthMiddleware(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
			c.Abort()
			return
		}
		claims, err := tokens.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
			c.Abort()
			return
		}
		c.Set(PlayerIDKey, claims.PlayerID)
		c.Next()
	}
}
