package ws

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WriteOnlyConn 只写接口
type WriteOnlyConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ReadWriteConn 读写接口，*websocket.Conn 和 LineConn 都满足
type ReadWriteConn interface {
	WriteOnlyConn
	ReadMessage() (messageType int, p []byte, err error)
}

const (
	maxLineSize = 1 << 20
	writeWait   = 10 * time.Second
)

// LineConn TCP 上按行分隔的 JSON 流，一行一条消息
type LineConn struct {
	conn   net.Conn
	reader *bufio.Reader
	wmu    sync.Mutex
}

func NewLineConn(conn net.Conn) *LineConn {
	return &LineConn{conn: conn, reader: bufio.NewReaderSize(conn, 4096)}
}

func (c *LineConn) ReadMessage() (int, []byte, error) {
	for {
		line, err := c.readLine()
		if line = bytes.TrimSpace(line); len(line) > 0 {
			return websocket.TextMessage, line, nil
		}
		if err != nil {
			return 0, nil, err
		}
	}
}

// readLine 读到换行为止。超过 maxLineSize 的行整行丢弃，连接继续可用
func (c *LineConn) readLine() ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		frag, err := c.reader.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(frag) > maxLineSize {
				tooLong, line = true, nil
			} else {
				line = append(line, frag...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, err
	}
}

func (c *LineConn) WriteMessage(_ int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	buf = append(buf, '\n')
	_, err := c.conn.Write(buf)
	return err
}

func (c *LineConn) Close() error {
	return c.conn.Close()
}
