// Package maze 根据种子生成对局迷宫。相同的宽、高与种子在任一端
// 得到逐位相同的墙网格与出口，因此网络上只传输种子。
package maze

import (
	"encoding/binary"
	"hash/fnv"
)

// Topology 不可变的迷宫。墙以双倍分辨率存储：格 (x, y) 对应网格
// (2x+1, 2y+1)，两格之间的奇偶坐标表示连接它们的通道
type Topology struct {
	width, height int
	seed          int64
	strategy      string
	exitX, exitY  int
	repaired      bool
	walls         [][]bool
}

// New 按尺寸与种子构建迷宫，宽高至少为 1。
// 生成总会成功：不连通的角落与出口通过开凿修复
func New(width, height int, seed int64) *Topology {
	src := newSource(seed)
	strategy := pickStrategy(src)

	c := strategy.carve(width, height)
	c.clearCorners()
	repaired := c.connect(0, 0, width-1, height-1)
	exitX, exitY := c.chooseExit(src)

	t := &Topology{
		width:    width,
		height:   height,
		seed:     seed,
		strategy: strategy.Name(),
		exitX:    exitX,
		exitY:    exitY,
		repaired: repaired,
	}
	t.walls = toWallGrid(c)
	t.clearCornerBlocks()
	return t
}

func toWallGrid(c cells) [][]bool {
	h, w := len(c), len(c[0])
	walls := make([][]bool, 2*h+1)
	for i := range walls {
		row := make([]bool, 2*w+1)
		for j := range row {
			row[j] = true
		}
		walls[i] = row
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c[y][x] {
				continue
			}
			gx, gy := 2*x+1, 2*y+1
			walls[gy][gx] = false
			if y > 0 && !c[y-1][x] {
				walls[gy-1][gx] = false
			}
			if y < h-1 && !c[y+1][x] {
				walls[gy+1][gx] = false
			}
			if x > 0 && !c[y][x-1] {
				walls[gy][gx-1] = false
			}
			if x < w-1 && !c[y][x+1] {
				walls[gy][gx+1] = false
			}
		}
	}
	return walls
}

// clearCornerBlocks 无论策略结果如何，都打通两个起点格及其四个网格邻居
func (t *Topology) clearCornerBlocks() {
	for _, p := range []point{{0, 0}, {t.width - 1, t.height - 1}} {
		gx, gy := 2*p.x+1, 2*p.y+1
		t.walls[gy][gx] = false
		t.walls[gy][gx-1] = false
		t.walls[gy][gx+1] = false
		t.walls[gy-1][gx] = false
		t.walls[gy+1][gx] = false
	}
}

func (t *Topology) Width() int       { return t.width }
func (t *Topology) Height() int      { return t.height }
func (t *Topology) Seed() int64      { return t.seed }
func (t *Topology) Strategy() string { return t.strategy }

// Repaired 角落间修复是否进行过开凿
func (t *Topology) Repaired() bool { return t.repaired }

// Exit 返回生成时选定的出口格
func (t *Topology) Exit() (x, y int) { return t.exitX, t.exitY }

// InBounds (x, y) 是否在迷宫内
func (t *Topology) InBounds(x, y int) bool {
	return x >= 0 && x < t.width && y >= 0 && y < t.height
}

// IsWall 格 (x, y) 是否不可通行（迷宫外视为墙）
func (t *Topology) IsWall(x, y int) bool {
	if !t.InBounds(x, y) {
		return true
	}
	return t.walls[2*y+1][2*x+1]
}

// CanMove 位于 (x, y) 的玩家能否向 d 方向移动一步
func (t *Topology) CanMove(x, y int, d Direction) bool {
	dx, dy := d.Delta()
	nx, ny := x+dx, y+dy
	if !t.InBounds(nx, ny) {
		return false
	}
	return !t.IsWall(nx, ny)
}

// Walls 返回双倍分辨率网格的副本，按 [row][col] 索引
func (t *Topology) Walls() [][]bool {
	out := make([][]bool, len(t.walls))
	for i, row := range t.walls {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

// Fingerprint 墙网格的哈希，双方写入日志以发现不一致
func (t *Topology) Fingerprint() uint64 {
	h := fnv.New64a()
	var dims [16]byte
	binary.BigEndian.PutUint64(dims[:8], uint64(t.width))
	binary.BigEndian.PutUint64(dims[8:], uint64(t.height))
	_, _ = h.Write(dims[:])
	for _, row := range t.walls {
		buf := make([]byte, len(row))
		for i, wall := range row {
			if wall {
				buf[i] = 1
			}
		}
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

// Reachable 两格之间是否有通道相连
func (t *Topology) Reachable(fromX, fromY, toX, toY int) bool {
	if !t.InBounds(fromX, fromY) || !t.InBounds(toX, toY) {
		return false
	}
	c := make(cells, t.height)
	for y := range c {
		c[y] = make([]bool, t.width)
		for x := range c[y] {
			c[y][x] = t.IsWall(x, y)
		}
	}
	return c.reachable(fromX, fromY, toX, toY)
}
