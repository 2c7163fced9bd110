package ws

import (
	"sync"

	"go-splendor/dto"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client 一条连接：一个读循环 + 一个写循环，发送走有界队列
type Client struct {
	conn      ReadWriteConn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger

	mu       sync.RWMutex
	identity string
}

func newClient(conn ReadWriteConn, queue int, logger *zap.Logger) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, queue),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Identity 未登录时为空
func (c *Client) Identity() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

func (c *Client) setIdentity(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = id
}

// Send 尽力投递，队列满或连接已关闭时丢弃
func (c *Client) Send(msg dto.Message) bool {
	data, err := msg.Encode()
	if err != nil {
		c.logger.Error("❌ 编码消息失败", zap.String("type", msg.Type()), zap.Error(err))
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Warn("⚠️ 发送队列已满，丢弃消息", zap.String("player", c.Identity()), zap.String("type", msg.Type()))
		return false
	}
}

func (c *Client) writePump() {
	for {
		select {
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Info("写入失败，关闭连接", zap.String("player", c.Identity()), zap.Error(err))
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}
