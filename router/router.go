package router

import (
	"net/http"
	"time"

	"go-splendor/controller"
	"go-splendor/middleware"
	"go-splendor/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Rooms     *controller.RoomController
	Auth      *controller.AuthController
	Tokens    *utils.TokenIssuer
	WebSocket gin.HandlerFunc
	Logger    *zap.Logger
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger))

	// 允许所有域名、所有方法、所有 header
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	InitRouter(r, d)
	return r
}

func InitRouter(r *gin.Engine, d Deps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authAPI := r.Group("/auth")
	{
		authAPI.POST("/register", d.Auth.Register)
		authAPI.POST("/login", d.Auth.Login)
		authAPI.POST("/refresh", d.Auth.Refresh)
	}

	api := r.Group("/room", middleware.AuthMiddleware(d.Tokens))
	{
		api.GET("/list", d.Rooms.GetRoomList)
		api.GET("/online", d.Rooms.GetOnlinePlayer)
		api.GET("/:roomID", d.Rooms.GetRoomInfo)
		api.GET("/:roomID/state", d.Rooms.GetGameState)
	}

	// WebSocket 路由
	if d.WebSocket != nil {
		r.GET("/ws", d.WebSocket)
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger == nil {
			return
		}
		logger.Debug("HTTP 请求",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
