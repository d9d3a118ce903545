package server

import "mazerace/maze"

type inputKind int

const (
	inputMove inputKind = iota
	inputSync
)

// Input 等待房间循环处理的意图（移动带玩家 id，同步请求带发起连接）
type Input struct {
	Kind      inputKind
	PlayerID  int
	Direction maze.Direction
	From      *ClientConn
}
