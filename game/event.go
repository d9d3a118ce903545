package game

import (
	"time"

	"mazerace/maze"
)

// EventKind 告诉展示层发生了什么变化
type EventKind int

const (
	EventGameStarted EventKind = iota + 1
	EventPosition
	EventGameEnded
	EventPeerJoined
	EventPeerLeft
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventGameStarted:
		return "game_started"
	case EventPosition:
		return "position"
	case EventGameEnded:
		return "game_ended"
	case EventPeerJoined:
		return "peer_joined"
	case EventPeerLeft:
		return "peer_left"
	case EventDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Event 推送给展示层（核心不直接调用展示代码）；与 Kind 无关的字段为零值
type Event struct {
	Kind      EventKind
	PlayerID  int
	X, Y      int
	Direction maze.Direction
	ExitX     int
	ExitY     int
	Seed      int64
	WinnerID  int
	Elapsed   time.Duration
}
