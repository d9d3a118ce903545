// Package server 对局的主机端：持有权威房间，
// 通过 TCP 或 WebSocket 接入唯一的远端玩家。
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mazerace/config"
	"mazerace/logger"
	"mazerace/transport"
)

// ErrServerClosed Close 之后 Serve 返回此错误
var ErrServerClosed = errors.New("server closed")

// Config Server 的配置
type Config struct {
	Game   config.Config
	Logger *zap.SugaredLogger
	Clock  func() time.Time
}

// Server 承载一局对战
type Server struct {
	cfg  config.Config
	log  *zap.SugaredLogger
	room *Room

	mu     sync.Mutex
	ln     net.Listener
	admin  *http.Server
	closed bool
	wg     sync.WaitGroup
}

func New(c Config) (*Server, error) {
	if err := c.Game.Validate(); err != nil {
		return nil, err
	}
	log := logger.Or(c.Logger)
	room := NewRoom(RoomConfig{Game: c.Game, Logger: log, Clock: c.Clock})
	room.Start()
	return &Server{
		cfg:  c.Game,
		log:  log,
		room: room,
	}, nil
}

func (s *Server) Room() *Room { return s.room }

// ListenAndServe 绑定配置端口并提供服务，直到 ctx 结束或调用 Close
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve 在 ln 上接受连接：第一个成为远端玩家，之后的连接被拒绝并关闭
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	s.log.Infow("waiting for remote player", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			return err
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return ErrServerClosed
		}
		s.wg.Add(1)
		s.mu.Unlock()
		go func() {
			defer s.wg.Done()
			s.serveConn(transport.NewTCP(conn))
		}()
	}
}

// serveConn 在调用方协程中运行一个会话直至结束
func (s *Server) serveConn(conn transport.Conn) {
	cc, err := s.room.Join(conn)
	if err != nil {
		s.log.Warnw("rejecting connection", "remote", conn.RemoteAddr(), "err", err)
		_ = conn.Close()
		return
	}
	go cc.writePump()
	cc.readPump(s.room)
	s.room.Leave(cc)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Addr Serve 启动后返回 TCP 监听地址
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close 停止接入，关闭管理服务并结束对局
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln, admin := s.ln, s.admin
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = multierr.Append(err, ln.Close())
	}
	if admin != nil {
		err = multierr.Append(err, admin.Close())
	}
	s.room.Stop()
	s.wg.Wait()
	s.log.Infow("server closed")
	return err
}
