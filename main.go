package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-splendor/auth"
	"go-splendor/config"
	"go-splendor/controller"
	"go-splendor/decision"
	"go-splendor/lobby"
	"go-splendor/repository"
	"go-splendor/router"
	"go-splendor/service"
	"go-splendor/utils"
	"go-splendor/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("❌ 服务异常退出", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	registry := decision.NewRegistry()
	n, err := registry.LoadModels(cfg.ModelsDir, logger)
	if err != nil {
		return err
	}
	if cfg.AIServiceURL != "" {
		remote := decision.NewRemote(cfg.AIServiceURL, cfg.AITimeout)
		registry.Register(decision.RemoteModel, func() decision.Provider { return remote })
	}
	logger.Info("✅ 决策模型就绪", zap.Int("loaded", n), zap.Strings("models", registry.Tags()))

	var authn auth.Authenticator
	switch cfg.AuthDriver {
	case "memory":
		authn = auth.NewMemoryStore()
	default:
		store, err := auth.OpenSQL(ctx, cfg.AuthDriver, cfg.AuthDSN)
		if err != nil {
			return err
		}
		closers = append(closers, store.Close)
		authn = store
	}

	tokens := utils.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	hub := ws.NewHub(ws.Config{SendQueue: cfg.SendQueue, Heartbeat: cfg.Heartbeat}, authn, tokens, logger)
	manager := lobby.NewManager(lobby.Config{
		BotDelay:    cfg.BotDelay,
		MaxBotSteps: cfg.MaxBotSteps,
		Seed:        cfg.Seed,
	}, registry, hub, logger)
	hub.AttachLobby(manager)

	if cfg.RedisAddr != "" {
		rdb, err := repository.InitRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		logger.Info("✅ Redis 连接成功", zap.String("addr", cfg.RedisAddr))
		mirror := repository.NewRoomMirror(rdb, 0, logger)
		manager.SetMirror(mirror)
		// 先摘掉镜像再关闭，断线清理时不再写入
		closers = append(closers, rdb.Close, func() error {
			manager.SetMirror(nil)
			return mirror.Close()
		})
	}
	closers = append(closers, func() error {
		manager.Shutdown()
		return nil
	}, hub.Close)

	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(router.Deps{
		Rooms:     controller.NewRoomController(service.NewRoomService(manager, hub, cfg.RoomListLimit)),
		Auth:      controller.NewAuthController(service.NewAuthService(authn, tokens)),
		Tokens:    tokens,
		WebSocket: hub.HandleWebSocket,
		Logger:    logger,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	ln, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		return err
	}

	errc := make(chan error, 2)
	go hub.RunHeartbeat(ctx)
	go func() { errc <- hub.ServeListener(ctx, ln) }()
	go func() {
		logger.Info("✅ HTTP 监听", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("收到退出信号，正在关闭")
	case err = <-errc:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return multierr.Append(err, srv.Shutdown(shutdownCtx))
}
