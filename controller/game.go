package controller

import (
	"net/http"

	"go-splendor/middleware"

	"github.com/gin-gonic/gin"
)

// GetGameState 以请求者身份查看对局，只有本人能看到自己的预留卡
func (rc *RoomController) GetGameState(c *gin.Context) {
	state, seats, err := rc.rooms.GetGameState(c.Param("roomID"), c.GetString(middleware.PlayerIDKey))
	if err != nil {
		c.JSON(roomErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"data": gin.H{
			"state":        state,
			"seat_mapping": seats,
		},
	})
}
