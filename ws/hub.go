// Package ws 连接服务：TCP 行协议和 WebSocket 两种入口，登录握手、消息分发、广播和心跳。
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go-splendor/auth"
	"go-splendor/dto"
	"go-splendor/lobby"
	"go-splendor/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const TimeLayout = "2006-01-02 15:04:05"

var (
	ErrNotLoggedIn     = errors.New("Not logged in")
	ErrAlreadyLoggedIn = errors.New("Already logged in")
	ErrUnknownCommand  = errors.New("Unknown Command")
)

type Config struct {
	SendQueue int
	Heartbeat time.Duration
}

type Hub struct {
	mu      sync.RWMutex
	conns   map[*Client]struct{}
	players map[string]*Client

	lobby    *lobby.Manager
	auth     auth.Authenticator
	tokens   *utils.TokenIssuer
	logger   *zap.Logger
	cfg      Config
	upgrader websocket.Upgrader
}

func NewHub(cfg Config, authn auth.Authenticator, tokens *utils.TokenIssuer, logger *zap.Logger) *Hub {
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = 64
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = time.Second
	}
	return &Hub{
		conns:   make(map[*Client]struct{}),
		players: make(map[string]*Client),
		auth:    authn,
		tokens:  tokens,
		logger:  logger,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// AttachLobby 房间管理器需要 Hub 作为 Broadcaster，所以分两步构造
func (h *Hub) AttachLobby(m *lobby.Manager) {
	h.lobby = m
}

// Send 实现 lobby.Broadcaster
func (h *Hub) Send(identity string, msg dto.Message) {
	h.mu.RLock()
	c, ok := h.players[identity]
	h.mu.RUnlock()
	if ok {
		c.Send(msg)
	}
}

// Broadcast 发给所有已登录的连接
func (h *Hub) Broadcast(msg dto.Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.players))
	for _, c := range h.players {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.Send(msg)
	}
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players)
}

func (h *Hub) login(c *Client, identity string) error {
	if c.Identity() != "" {
		return ErrAlreadyLoggedIn
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.players[identity]; ok {
		return ErrAlreadyLoggedIn
	}
	h.players[identity] = c
	c.setIdentity(identity)
	return nil
}

func (h *Hub) loginSuccess(c *Client) {
	identity := c.Identity()
	token, err := h.tokens.GenerateAccessToken(identity)
	if err != nil {
		h.logger.Error("❌ 签发 token 失败", zap.String("player", identity), zap.Error(err))
	}
	c.Send(dto.NewMessage(dto.MsgLoginSuccess, map[string]interface{}{
		"player_id":                    identity,
		"available_decision_providers": h.lobby.Models(),
		"token":                        token,
	}))
	h.logger.Info("✅ 玩家登录", zap.String("player", identity))
}

// Serve 处理一条连接直到断开。identity 非空表示握手阶段已经通过 token 登录。
func (h *Hub) Serve(ctx context.Context, conn ReadWriteConn, identity string) {
	c := newClient(conn, h.cfg.SendQueue, h.logger)
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	defer h.disconnect(c)

	go c.writePump()

	if identity != "" {
		if err := h.login(c, identity); err != nil {
			c.Send(dto.ErrorMessage(err.Error()))
		} else {
			h.loginSuccess(c)
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.logger.Debug("读取消息失败", zap.String("player", c.Identity()), zap.Error(err))
			return
		}
		h.dispatch(ctx, c, data)
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Client, data []byte) {
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warn("⚠️ 消息解析失败", zap.String("player", c.Identity()), zap.Error(err))
		return
	}
	msgType, _ := msg["type"].(string)
	handler, ok := messageHandlers[msgType]
	if !ok {
		h.logger.Warn("⚠️ 未知的消息类型", zap.String("type", msgType))
		c.Send(dto.ErrorMessage(ErrUnknownCommand.Error()))
		return
	}
	if c.Identity() == "" && msgType != dto.MsgLogin && msgType != dto.MsgRegister {
		c.Send(dto.ErrorMessage(ErrNotLoggedIn.Error()))
		return
	}
	if err := handler(ctx, h, c, msg); err != nil {
		h.logger.Debug("请求被拒绝", zap.String("player", c.Identity()), zap.String("type", msgType), zap.Error(err))
		c.Send(dto.ErrorMessage(err.Error()))
	}
}

// disconnect 断线后级联离开房间
func (h *Hub) disconnect(c *Client) {
	identity := c.Identity()
	h.mu.Lock()
	delete(h.conns, c)
	if identity != "" && h.players[identity] == c {
		delete(h.players, identity)
	}
	h.mu.Unlock()

	if identity != "" && h.lobby != nil {
		h.lobby.Disconnect(identity)
		h.logger.Info("玩家断开连接", zap.String("player", identity))
	}
	_ = c.Close()
}

// RunHeartbeat 每个周期向所有已登录连接发送 TIME_UPDATE
func (h *Hub) RunHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Broadcast(dto.NewMessage(dto.MsgTimeUpdate, map[string]interface{}{"time": now.Format(TimeLayout)}))
		}
	}
}

// ServeListener 接受 TCP 连接直到 ctx 结束
func (h *Hub) ServeListener(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	h.logger.Info("✅ TCP 监听", zap.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go h.Serve(ctx, NewLineConn(conn), "")
	}
}

// HandleWebSocket WebSocket 入口，可带 ?token= 直接登录
func (h *Hub) HandleWebSocket(c *gin.Context) {
	identity := ""
	if token := c.Query("token"); token != "" {
		claims, err := h.tokens.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
			return
		}
		identity = claims.PlayerID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("⚠️ WebSocket 升级失败", zap.Error(err))
		return
	}
	h.Serve(c.Request.Context(), conn, identity)
}

// Close 关闭所有连接
func (h *Hub) Close() error {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var err error
	for _, c := range clients {
		err = multierr.Append(err, c.Close())
	}
	return err
}
