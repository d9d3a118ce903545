package server

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mazerace/config"
	"mazerace/game"
	"mazerace/logger"
	"mazerace/maze"
	"mazerace/protocol"
	"mazerace/transport"
)

var (
	// ErrRemoteTaken 远端玩家已加入后拒绝新连接（一局仅两名玩家，不支持重连）
	ErrRemoteTaken = errors.New("remote player slot already used")
	// ErrRoomStopped 房间已停止
	ErrRoomStopped = errors.New("room stopped")
)

const eventQueueSize = 64

// RoomConfig Room 的配置
type RoomConfig struct {
	Game   config.Config
	Logger *zap.SugaredLogger
	// Clock 默认 time.Now
	Clock func() time.Time
}

// Room 权威对局：所有状态修改及随后的广播都在房间唯一的循环协程中执行，
// 远端玩家与主机本地视图看到同样有序的历史
type Room struct {
	ID uuid.UUID

	cfg     config.Config
	log     *zap.SugaredLogger
	now     func() time.Time
	state   *game.State
	metrics *RoomMetrics

	inputChan chan Input
	joinChan  chan joinRequest
	leaveChan chan *ClientConn
	events    chan game.Event

	done      chan struct{}
	stopped   chan struct{}
	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	initOnce  sync.Once

	// 仅由循环协程访问
	remote     *ClientConn
	remoteSeen bool
}

type joinRequest struct {
	conn  transport.Conn
	reply chan joinReply
}

type joinReply struct {
	cc  *ClientConn
	err error
}

// NewRoom 创建处于 Waiting 阶段的房间
func NewRoom(cfg RoomConfig) *Room {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	id := uuid.New()
	return &Room{
		ID:        id,
		cfg:       cfg.Game,
		log:       logger.Or(cfg.Logger).With("match", id.String()),
		now:       now,
		state:     game.NewState(game.WithClock(now)),
		metrics:   &RoomMetrics{},
		inputChan: make(chan Input, 64),
		joinChan:  make(chan joinRequest),
		leaveChan: make(chan *ClientConn, 4),
		events:    make(chan game.Event, eventQueueSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// State 暴露对局状态，供展示层只读查询
func (r *Room) State() *game.State { return r.state }

// Events 主机本地视图需要渲染的事件；
// 无人消费时除对局结果外的事件会被丢弃并计数
func (r *Room) Events() <-chan game.Event { return r.events }

func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Initialize 生成迷宫，将双方放到各自角落并开始计时（仅首次调用生效）
func (r *Room) Initialize() {
	r.initOnce.Do(func() {
		seed := r.cfg.Seed
		if seed == 0 {
			seed = r.now().UnixNano()
		}
		w, h := r.cfg.Width, r.cfg.Height
		topo := maze.New(w, h, seed)
		exitX, exitY := topo.Exit()

		for _, id := range []int{game.HostPlayerID, game.RemotePlayerID} {
			x, y := game.StartPosition(id, w, h)
			r.state.AddPlayer(game.Player{ID: id, X: x, Y: y, Direction: maze.Down})
		}
		r.state.Initialize(topo, exitX, exitY)

		r.log.Infow("match initialized",
			"seed", seed,
			"strategy", topo.Strategy(),
			"repaired", topo.Repaired(),
			"fingerprint", topo.Fingerprint(),
			"exit", []int{exitX, exitY})
		r.emit(game.Event{
			Kind:     game.EventGameStarted,
			PlayerID: game.HostPlayerID,
			ExitX:    exitX,
			ExitY:    exitY,
			Seed:     seed,
		})
	})
}

// Move 为主机本地玩家提交一步移动
func (r *Room) Move(d maze.Direction) error {
	return r.submit(Input{Kind: inputMove, PlayerID: game.HostPlayerID, Direction: d})
}

// Join 将 conn 注册为远端玩家，并为其排队 GAME_START
func (r *Room) Join(conn transport.Conn) (*ClientConn, error) {
	req := joinRequest{conn: conn, reply: make(chan joinReply, 1)}
	select {
	case r.joinChan <- req:
	case <-r.done:
		return nil, ErrRoomStopped
	}
	select {
	case rep := <-req.reply:
		return rep.cc, rep.err
	case <-r.done:
		return nil, ErrRoomStopped
	}
}

// Leave 注销远端会话；先关闭连接，释放阻塞在满队列上的循环
func (r *Room) Leave(cc *ClientConn) {
	_ = cc.Close()
	select {
	case r.leaveChan <- cc:
	case <-r.done:
	}
}

func (r *Room) submit(in Input) error {
	select {
	case <-r.done:
		return ErrRoomStopped
	default:
	}
	select {
	case r.inputChan <- in:
		return nil
	case <-r.done:
		return ErrRoomStopped
	}
}

// startInfo playerID 的 GAME_START 载荷，携带当前位置，同步时可纠正偏离的视图
func (r *Room) startInfo(playerID int) (protocol.StartInfo, bool) {
	topo := r.state.Topology()
	p, ok := r.state.Player(playerID)
	if topo == nil || !ok {
		return protocol.StartInfo{}, false
	}
	exitX, exitY := r.state.Exit()
	return protocol.StartInfo{
		PlayerID: playerID,
		Seed:     topo.Seed(),
		StartX:   p.X,
		StartY:   p.Y,
		ExitX:    exitX,
		ExitY:    exitY,
	}, true
}

// emit 不丢弃 EventGameEnded：主机视图必须看到与远端相同的结果，
// 因此该事件会等待消费者或 Stop
func (r *Room) emit(ev game.Event) {
	if ev.Kind == game.EventGameEnded {
		select {
		case r.events <- ev:
		case <-r.done:
		}
		return
	}
	select {
	case r.events <- ev:
	default:
		r.metrics.IncEventsDropped()
	}
}
