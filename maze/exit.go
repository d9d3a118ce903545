package maze

const (
	// MinExitDistance 网格允许时，出口与任一角落的最小曼哈顿距离
	MinExitDistance = 10
	// PreferredExitDistance 优先出口距离区间的上限
	PreferredExitDistance = 15
)

// chooseExit 按行优先扫描网格，用 src（延续选择策略时的随机流）
// 在最优候选层中均匀选取；选中格若不连通则开凿，保证两个角落均可到达
func (c cells) chooseExit(src *source) (int, int) {
	h, w := len(c), len(c[0])
	lastX, lastY := w-1, h-1

	var band, wide, corridor, others []point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x == 0 && y == 0) || (x == lastX && y == lastY) {
				continue
			}
			others = append(others, point{x, y})
			if c[y][x] {
				continue
			}
			corridor = append(corridor, point{x, y})
			d := min(x+y, abs(lastX-x)+abs(lastY-y))
			if d < MinExitDistance {
				continue
			}
			wide = append(wide, point{x, y})
			if d <= PreferredExitDistance {
				band = append(band, point{x, y})
			}
		}
	}

	var candidates []point
	switch {
	case len(band) > 0:
		candidates = band
	case len(wide) > 0:
		candidates = wide
	case len(corridor) > 0:
		candidates = corridor
	case len(others) > 0:
		candidates = others
	default:
		return lastX, lastY
	}

	exit := candidates[src.intn(len(candidates))]
	c.open(exit.x, exit.y)
	c.connect(0, 0, exit.x, exit.y)
	c.connect(lastX, lastY, exit.x, exit.y)
	return exit.x, exit.y
}
