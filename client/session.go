// Package client 对局的加入方：将主机广播镜像到本地 game.State，
// 并转发本地玩家的意图。
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mazerace/config"
	"mazerace/game"
	"mazerace/logger"
	"mazerace/maze"
	"mazerace/protocol"
	"mazerace/transport"
)

var (
	// ErrNotConnected 连接结束后发送意图时返回（不会写出任何内容）
	ErrNotConnected = errors.New("not connected")
	// ErrNotStarted 收到 GAME_START 分配 id 之前发送意图时返回
	ErrNotStarted = errors.New("match not started")
)

const eventQueueSize = 64

// Config Session 的配置；Game 提供迷宫尺寸，双方必须一致
type Config struct {
	Game   config.Config
	Logger *zap.SugaredLogger
	Clock  func() time.Time
}

// Session 到主机的一条连接
type Session struct {
	cfg  config.Config
	log  *zap.SugaredLogger
	now  func() time.Time
	conn transport.Conn

	mu       sync.RWMutex
	state    *game.State
	playerID int

	connected atomic.Bool
	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error

	events  chan game.Event
	dropped atomic.Int64
}

// Dial 通过 TCP 连接主机
func Dial(ctx context.Context, addr string, cfg Config) (*Session, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewSession(transport.NewTCP(conn), cfg), nil
}

// DialWS 连接主机管理端的 WebSocket 入口，例如 ws://localhost:8080/ws
func DialWS(ctx context.Context, url string, cfg Config) (*Session, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewSession(transport.NewWS(ws), cfg), nil
}

// NewSession 包装已建立的行连接
func NewSession(conn transport.Conn, cfg Config) *Session {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	s := &Session{
		cfg:    cfg.Game,
		log:    logger.Or(cfg.Logger).With("host", conn.RemoteAddr()),
		now:    now,
		conn:   conn,
		events: make(chan game.Event, eventQueueSize),
	}
	s.connected.Store(true)
	return s
}

// Events 推送给展示层的状态变化（通道满时丢弃）
func (s *Session) Events() <-chan game.Event { return s.events }

// Dropped 因队列满丢弃的事件数
func (s *Session) Dropped() int64 { return s.dropped.Load() }

// State 镜像的对局状态，首个 GAME_START 之前为 nil
func (s *Session) State() *game.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// PlayerID 主机分配的 id，GAME_START 之前为 0
func (s *Session) PlayerID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerID
}

func (s *Session) Connected() bool { return s.connected.Load() }

// Run 持续读取主机消息直到连接结束；本地主动关闭时返回 nil
func (s *Session) Run() error {
	defer func() {
		s.connected.Store(false)
		s.emit(game.Event{Kind: game.EventDisconnected, PlayerID: s.PlayerID()})
	}()
	for {
		line, err := s.conn.ReadLine()
		if errors.Is(err, transport.ErrLineTooLong) {
			s.log.Debugw("dropping oversized line")
			continue
		}
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			s.log.Infow("connection to host ended", "err", err)
			return err
		}
		msg, ok := protocol.Decode(line)
		if !ok {
			s.log.Debugw("dropping undecodable line", "line", line)
			continue
		}
		s.handle(msg)
	}
}

// Close 结束会话并解除 Run 的阻塞
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		s.connected.Store(false)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// SendMove 请求主机将本地玩家移动一格
func (s *Session) SendMove(d maze.Direction) error {
	id, err := s.intentID()
	if err != nil {
		return err
	}
	return s.send(protocol.Move{PlayerID: id, Direction: d.String()}.Message())
}

// SendSync 请求主机按当前位置重发 GAME_START
func (s *Session) SendSync() error {
	id, err := s.intentID()
	if err != nil {
		return err
	}
	return s.send(protocol.Sync{PlayerID: id}.Message())
}

func (s *Session) intentID() (int, error) {
	if !s.connected.Load() {
		return 0, ErrNotConnected
	}
	id := s.PlayerID()
	if id == 0 {
		return 0, ErrNotStarted
	}
	return id, nil
}

func (s *Session) send(m protocol.Message) error {
	if err := s.conn.WriteLine(protocol.Encode(m)); err != nil {
		s.log.Warnw("write failed", "type", m.Type, "err", err)
		return fmt.Errorf("send %s: %w", m.Type, err)
	}
	return nil
}

func (s *Session) emit(ev game.Event) {
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
	}
}
