package controller

import (
	"errors"
	"net/http"

	"go-splendor/dto"
	"go-splendor/lobby"
	"go-splendor/service"

	"github.com/gin-gonic/gin"
)

type RoomController struct {
	rooms *service.RoomService
}

func NewRoomController(rooms *service.RoomService) *RoomController {
	return &RoomController{rooms: rooms}
}

func (rc *RoomController) GetRoomList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "获取成功",
		"status_code": http.StatusOK,
		"data": dto.GetRoomList{
			Rooms: rc.rooms.GetRoomList(),
		},
	})
}

func (rc *RoomController) GetRoomInfo(c *gin.Context) {
	room, err := rc.rooms.GetRoomInfo(c.Param("roomID"))
	if err != nil {
		c.JSON(roomErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"data":        room,
	})
}

func (rc *RoomController) GetOnlinePlayer(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status_code": http.StatusOK,
		"data":        gin.H{"online": rc.rooms.GetOnlinePlayer()},
	})
}

func roomErrorStatus(err error) int {
	switch {
	case errors.Is(err, lobby.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, lobby.ErrGameNotStarted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
