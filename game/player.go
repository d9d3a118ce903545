package game

import "mazerace/maze"

// 两人对局的玩家 id 固定：主机恒为 1
const (
	HostPlayerID   = 1
	RemotePlayerID = 2
)

// Player 一名参赛玩家，只由 State 修改
type Player struct {
	ID         int
	X, Y       int
	Direction  maze.Direction
	Finished   bool
	FinishTime int64 // 自开局起的毫秒数
}

// StartPosition 返回该玩家 id 的起始角落
func StartPosition(id, width, height int) (int, int) {
	if id == HostPlayerID {
		return 0, 0
	}
	return width - 1, height - 1
}
