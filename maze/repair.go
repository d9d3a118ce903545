package maze

type point struct{ x, y int }

// reachable 在通道格上做广度优先搜索
func (c cells) reachable(fromX, fromY, toX, toY int) bool {
	if c[fromY][fromX] || c[toY][toX] {
		return false
	}
	h, w := len(c), len(c[0])
	visited := make([][]bool, h)
	for y := range visited {
		visited[y] = make([]bool, w)
	}
	queue := []point{{fromX, fromY}}
	visited[fromY][fromX] = true
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p.x == toX && p.y == toY {
			return true
		}
		for _, d := range Directions {
			dx, dy := d.Delta()
			nx, ny := p.x+dx, p.y+dy
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			if visited[ny][nx] || c[ny][nx] {
				continue
			}
			visited[ny][nx] = true
			queue = append(queue, point{nx, ny})
		}
	}
	return false
}

// carvePath 打通一条曼哈顿路径：先沿 x，再沿 y
func (c cells) carvePath(fromX, fromY, toX, toY int) {
	x, y := fromX, fromY
	c.open(x, y)
	for x != toX {
		x += sign(toX - x)
		c.open(x, y)
	}
	for y != toY {
		y += sign(toY - y)
		c.open(x, y)
	}
}

// connect 在两格之间开凿，直到 BFS 确认连通
func (c cells) connect(fromX, fromY, toX, toY int) (repaired bool) {
	for !c.reachable(fromX, fromY, toX, toY) {
		c.carvePath(fromX, fromY, toX, toY)
		repaired = true
	}
	return repaired
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
