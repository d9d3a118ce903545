package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"mazerace/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 协议本身无鉴权：允许所有来源
		return true
	},
}

// Handler 返回管理路由：
//
//	GET /healthz  存活检查
//	GET /metrics  房间指标
//	GET /state    对局快照
//	GET /ws       以 WebSocket 作为远端玩家加入
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)
	return r
}

// ServeAdmin 在 addr 上提供 Handler，直到 Close
func (s *Server) ServeAdmin(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.admin = srv
	s.mu.Unlock()

	s.log.Infow("admin listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"match":   s.room.ID.String(),
		"metrics": s.room.Metrics().Snapshot(),
	}
	writeJSON(w, payload)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"match": s.room.ID.String(),
		"state": s.room.State().Snapshot(),
	})
}

// handleWS 升级连接并在当前协程运行远端会话
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.isClosed() {
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "err", err)
		return
	}
	s.serveConn(transport.NewWS(ws))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
