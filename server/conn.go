package server

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mazerace/maze"
	"mazerace/protocol"
	"mazerace/transport"
)

// sendQueueSize 等待写协程发送的行数上限
const sendQueueSize = 256

// ClientConn 远端玩家会话：行连接、分配的玩家 id 以及由写协程消费的发送队列
type ClientConn struct {
	ID       uuid.UUID
	PlayerID int

	conn      transport.Conn
	send      chan string
	closed    chan struct{}
	closeOnce sync.Once
	log       *zap.SugaredLogger
}

func newClientConn(conn transport.Conn, playerID int, log *zap.SugaredLogger) *ClientConn {
	id := uuid.New()
	return &ClientConn{
		ID:       id,
		PlayerID: playerID,
		conn:     conn,
		send:     make(chan string, sendQueueSize),
		closed:   make(chan struct{}),
		log:      log.With("conn", id.String(), "player", playerID, "remote", conn.RemoteAddr()),
	}
}

// Enqueue 将消息压入发送队列（队列满时阻塞，连接关闭后返回 false）
func (c *ClientConn) Enqueue(m protocol.Message) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- protocol.Encode(m):
		return true
	case <-c.closed:
		return false
	}
}

// Close 关闭底层连接，同时解除阻塞中的读取
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

// writePump 独立协程，持续写出 send 队列直到连接关闭
func (c *ClientConn) writePump() {
	for {
		select {
		case line := <-c.send:
			if err := c.conn.WriteLine(line); err != nil {
				c.log.Warnw("write failed", "err", err)
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

// readPump 逐行读取，将合法意图转换为 Input 注入房间，其余丢弃；
// 遇到 EOF、读错误或房间已停止时返回
func (c *ClientConn) readPump(r *Room) {
	for {
		line, err := c.conn.ReadLine()
		if errors.Is(err, transport.ErrLineTooLong) {
			r.metrics.IncMalformed()
			c.log.Debugw("dropping oversized line")
			continue
		}
		if err != nil {
			select {
			case <-c.closed:
				c.log.Debugw("read loop stopped")
			default:
				c.log.Infow("connection ended", "err", err)
			}
			return
		}
		msg, ok := protocol.Decode(line)
		if !ok {
			r.metrics.IncMalformed()
			c.log.Debugw("dropping undecodable line", "line", line)
			continue
		}
		if err := c.dispatch(r, msg); err != nil {
			c.log.Debugw("room stopped, ending read loop", "err", err)
			return
		}
	}
}

// dispatch 仅在房间无法再接收输入时返回错误
func (c *ClientConn) dispatch(r *Room, msg protocol.Message) error {
	switch msg.Type {
	case protocol.PlayerMove:
		mv, err := protocol.ParseMove(msg)
		if err != nil {
			r.metrics.IncMalformed()
			c.log.Debugw("dropping move", "err", err)
			return nil
		}
		if mv.PlayerID != c.PlayerID {
			r.metrics.IncIDMismatch()
			c.log.Debugw("dropping move for another player", "claimed", mv.PlayerID)
			return nil
		}
		dir, err := maze.ParseDirection(mv.Direction)
		if err != nil {
			r.metrics.IncMalformed()
			c.log.Debugw("dropping move", "err", err)
			return nil
		}
		return r.submit(Input{Kind: inputMove, PlayerID: c.PlayerID, Direction: dir, From: c})
	case protocol.SyncRequest:
		if _, err := protocol.ParseSync(msg); err != nil {
			r.metrics.IncMalformed()
			c.log.Debugw("dropping sync request", "err", err)
			return nil
		}
		return r.submit(Input{Kind: inputSync, PlayerID: c.PlayerID, From: c})
	default:
		c.log.Debugw("ignoring host-bound message", "type", msg.Type)
	}
	return nil
}
