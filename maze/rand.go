package maze

import "math/rand/v2"

// source 策略选择与出口选择共用的种子随机源。
// 只使用 PCG 的原始 Uint64 流：其算法固定，而 rand.Rand 的区间辅助函数
// 不保证在各 Go 版本间一致，双方可能由不同版本编译
type source struct {
	pcg *rand.PCG
}

func newSource(seed int64) *source {
	s := uint64(seed)
	return &source{pcg: rand.NewPCG(s, s^0x9e3779b97f4a7c15)}
}

// intn 返回 [0, n) 内的值，n 必须为正
func (s *source) intn(n int) int {
	return int(s.pcg.Uint64() % uint64(n))
}
