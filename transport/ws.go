package transport

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 5 * time.Second

type wsConn struct {
	ws  *websocket.Conn
	wmu sync.Mutex
}

// NewWS 包装 WebSocket 连接，每个文本帧恰好承载一行
func NewWS(ws *websocket.Conn) Conn {
	return &wsConn{ws: ws}
}

// ReadLine 超长帧读完丢弃后返回 ErrLineTooLong，而不是由读上限直接关闭连接
func (c *wsConn) ReadLine() (string, error) {
	for {
		kind, r, err := c.ws.NextReader()
		if err != nil {
			return "", err
		}
		if kind != websocket.TextMessage {
			if _, err := io.Copy(io.Discard, r); err != nil {
				return "", err
			}
			continue
		}
		payload, err := io.ReadAll(io.LimitReader(r, maxLineSize+1))
		if err != nil {
			return "", err
		}
		if len(payload) > maxLineSize {
			if _, err := io.Copy(io.Discard, r); err != nil {
				return "", err
			}
			return "", ErrLineTooLong
		}
		return strings.TrimRight(string(payload), "\r\n"), nil
	}
}

func (c *wsConn) WriteLine(line string) error {
	line = strings.TrimRight(line, "\n")
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsConn) Close() error {
	c.wmu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wmu.Unlock()
	return c.ws.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}
