package maze

import (
	"errors"
	"fmt"
)

// ErrUnknownDirection 方向标记不是 up、down、left、right 之一
var ErrUnknownDirection = errors.New("unknown direction")

// Direction 四个基本移动方向
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions 以固定顺序列出所有方向
var Directions = [4]Direction{Up, Down, Left, Right}

var directionTokens = [...]string{
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

// String 返回方向的协议标记
func (d Direction) String() string {
	if int(d) < len(directionTokens) {
		return directionTokens[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Delta 返回方向的单位格偏移
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// ParseDirection 将协议标记转为 Direction（精确匹配，区分大小写）
func ParseDirection(s string) (Direction, error) {
	for i, tok := range directionTokens {
		if tok == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}
