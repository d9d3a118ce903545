// Package game 对局的权威状态。主机根据校验过的移动修改它，
// 远端只维护跟随广播的镜像。
package game

import (
	"sync"
	"time"

	"mazerace/maze"
)

// Phase 对局生命周期：Waiting → Active → Ended
type Phase int

const (
	Waiting Phase = iota
	Active
	Ended
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Active:
		return "active"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// MoveResult ApplyMove 的结果
type MoveResult struct {
	Moved bool
	// Won 本次移动落在出口上
	Won bool
	// Ended 仅对结束对局的那次移动为 true
	Ended   bool
	Player  Player
	Elapsed time.Duration
}

// State 可并发使用；修改与广播之间的顺序由调用方保证
type State struct {
	mu           sync.RWMutex
	topology     *maze.Topology
	exitX, exitY int
	players      map[int]*Player
	phase        Phase
	startTime    time.Time
	winnerID     int
	now          func() time.Time
}

// Option State 的配置项
type Option func(*State)

// WithClock 替换 time.Now
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

func NewState(opts ...Option) *State {
	s := &State{
		players: make(map[int]*Player),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize 记录迷宫与出口，记下开始时间并进入 Active
func (s *State) Initialize(topology *maze.Topology, exitX, exitY int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topology = topology
	s.exitX, s.exitY = exitX, exitY
	s.startTime = s.now()
	s.phase = Active
}

// AddPlayer 加入 p，同 id 的玩家会被替换
func (s *State) AddPlayer(p Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.players[p.ID] = &cp
}

// ApplyMove 校验并应用 playerID 的一步移动
func (s *State) ApplyMove(playerID int, d maze.Direction) MoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok || s.phase != Active || p.Finished {
		return MoveResult{}
	}
	if !s.topology.CanMove(p.X, p.Y, d) {
		return MoveResult{Player: *p}
	}

	dx, dy := d.Delta()
	p.X += dx
	p.Y += dy
	p.Direction = d

	// 上面已确认处于 Active，此处获胜必然是状态转换
	won := s.checkWinLocked(playerID, p.X, p.Y)
	return MoveResult{
		Moved:   true,
		Won:     won,
		Ended:   won,
		Player:  *p,
		Elapsed: s.elapsedLocked(),
	}
}

// CheckWin (x, y) 是否为出口；Initialize 之前恒为 false。
// 对局未结束时第一个到达出口者获胜，之后的调用仍返回 true 但不改变胜者
func (s *State) CheckWin(playerID, x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkWinLocked(playerID, x, y)
}

func (s *State) checkWinLocked(playerID, x, y int) bool {
	if s.phase == Waiting || x != s.exitX || y != s.exitY {
		return false
	}
	if s.phase != Ended {
		s.phase = Ended
		s.winnerID = playerID
		if p, ok := s.players[playerID]; ok {
			p.Finished = true
			p.FinishTime = s.elapsedLocked().Milliseconds()
		}
	}
	return true
}

// SetPosition 镜像 PLAYER_POSITION 广播；未知或已完成的玩家、对局结束后均忽略
func (s *State) SetPosition(playerID, x, y int, d maze.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok || p.Finished || s.phase == Ended {
		return false
	}
	p.X, p.Y, p.Direction = x, y, d
	return true
}

// End 镜像 GAME_END 广播，仅首次调用生效
func (s *State) End(winnerID int, elapsed time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Ended {
		return false
	}
	s.phase = Ended
	s.winnerID = winnerID
	if p, ok := s.players[winnerID]; ok {
		p.Finished = true
		p.FinishTime = elapsed.Milliseconds()
	}
	return true
}

// ElapsedTime 自 Initialize 起的时长，之前为 0
func (s *State) ElapsedTime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsedLocked()
}

func (s *State) elapsedLocked() time.Duration {
	if s.phase == Waiting {
		return 0
	}
	return s.now().Sub(s.startTime)
}

func (s *State) Topology() *maze.Topology {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topology
}

func (s *State) Exit() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitX, s.exitY
}

func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// WinnerID 有人到达出口前为 0
func (s *State) WinnerID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.winnerID
}

// Player 返回指定 id 玩家的副本
func (s *State) Player(id int) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// IsWall 供展示层查询墙体；尚无迷宫时所有格都是墙
func (s *State) IsWall(x, y int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.topology == nil {
		return true
	}
	return s.topology.IsWall(x, y)
}
