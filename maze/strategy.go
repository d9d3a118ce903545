package maze

// cells 候选网格，按 [y][x] 索引；true 为墙，false 为通道
type cells [][]bool

func newCells(width, height int) cells {
	c := make(cells, height)
	for y := range c {
		row := make([]bool, width)
		for x := range row {
			row[x] = true
		}
		c[y] = row
	}
	return c
}

func (c cells) open(x, y int) {
	c[y][x] = false
}

func (c cells) clearCorners() {
	h := len(c)
	w := len(c[0])
	c.open(0, 0)
	c.open(w-1, h-1)
}

// Strategy 开凿候选网格；保证两个角落可通行，但不保证整体连通
type Strategy interface {
	Name() string
	carve(width, height int) cells
}

// strategies 由种子选择器按下标选取。顺序属于确定性约定的一部分，
// 只有双方运行同一版本时才能追加新策略
var strategies = [...]Strategy{
	gridStrategy{},
	openStrategy{},
	pathStrategy{},
}

func pickStrategy(src *source) Strategy {
	return strategies[src.intn(len(strategies))]
}

// gridStrategy 打通顶行与最右列，再每隔八格开出贯通的网格通道
type gridStrategy struct{}

func (gridStrategy) Name() string { return "grid" }

func (gridStrategy) carve(width, height int) cells {
	c := newCells(width, height)
	c.clearCorners()
	for x := 0; x < width; x++ {
		c.open(x, 0)
	}
	for y := 0; y < height; y++ {
		c.open(width-1, y)
	}
	for col := 8; col < width; col += 8 {
		for y := 0; y < height; y++ {
			c.open(col, y)
		}
	}
	for row := 8; row < height; row += 8 {
		for x := 0; x < width; x++ {
			c.open(x, row)
		}
	}
	c.clearCorners()
	return c
}

// openStrategy 仅在两坐标均为奇数处保留墙，
// 再从 3 开始每隔四行、四列额外打通通道
type openStrategy struct{}

func (openStrategy) Name() string { return "open" }

func (openStrategy) carve(width, height int) cells {
	c := newCells(width, height)
	c.clearCorners()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y%2 == 0 || x%2 == 0 {
				c.open(x, y)
			}
		}
	}
	for row := 3; row < height; row += 4 {
		for x := 0; x < width; x++ {
			c.open(x, row)
		}
	}
	for col := 3; col < width; col += 4 {
		for y := 0; y < height; y++ {
			c.open(col, y)
		}
	}
	c.clearCorners()
	return c
}

// pathStrategy 从两个角落铺设主路径通向中央十字，
// 再加上侧向分支以及角落附近的短斜向支路
type pathStrategy struct{}

func (pathStrategy) Name() string { return "path" }

func (pathStrategy) carve(width, height int) cells {
	c := newCells(width, height)
	c.clearCorners()
	midX, midY := width/2, height/2

	for x := 0; x < midX; x++ {
		c.open(x, 0)
	}
	for y := 0; y < midY; y++ {
		c.open(midX, y)
	}
	for x := midX; x < width; x++ {
		c.open(x, height-1)
	}
	for y := midY; y < height; y++ {
		c.open(midX, y)
	}

	for x := 0; x < width; x++ {
		c.open(x, midY)
	}
	for y := 0; y < height; y++ {
		c.open(midX, y)
	}

	for _, row := range []int{height / 4, 3 * height / 4} {
		if row < height {
			for x := width / 4; x < 3*width/4; x++ {
				c.open(x, row)
			}
		}
	}
	for _, col := range []int{width / 4, 3 * width / 4} {
		if col < width {
			for y := height / 4; y < 3*height/4; y++ {
				c.open(col, y)
			}
		}
	}

	for i := 0; i < min(width/3, height/3); i++ {
		c.open(i, i)
		c.open(width-1-i, height-1-i)
	}

	c.clearCorners()
	return c
}
