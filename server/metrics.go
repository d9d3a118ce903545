package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间循环与会话的运行指标（用于监控与调试）
type RoomMetrics struct {
	MovesAccepted int64 // 已应用的移动
	MovesRejected int64 // 撞墙、越界或结束后的移动
	IDMismatches  int64 // 冒用他人 id 的 PLAYER_MOVE
	Malformed     int64 // 解析失败的行或字段
	SyncRequests  int64 // 已响应的 SYNC_REQUEST
	Broadcasts    int64 // PLAYER_POSITION 与 GAME_END 广播次数
	EventsDropped int64 // 因队列满丢弃的本地视图事件
	ConnsAccepted int64 // 已注册的远端会话
	ConnsRejected int64 // 被拒绝的连接
	LoopCount     int64 // 循环处理的输入数
	TotalLoopNs   int64 // 处理输入累计耗时（纳秒）
}

func (m *RoomMetrics) IncAccepted()      { atomic.AddInt64(&m.MovesAccepted, 1) }
func (m *RoomMetrics) IncRejected()      { atomic.AddInt64(&m.MovesRejected, 1) }
func (m *RoomMetrics) IncIDMismatch()    { atomic.AddInt64(&m.IDMismatches, 1) }
func (m *RoomMetrics) IncMalformed()     { atomic.AddInt64(&m.Malformed, 1) }
func (m *RoomMetrics) IncSync()          { atomic.AddInt64(&m.SyncRequests, 1) }
func (m *RoomMetrics) IncBroadcast()     { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *RoomMetrics) IncEventsDropped() { atomic.AddInt64(&m.EventsDropped, 1) }
func (m *RoomMetrics) IncConnAccepted()  { atomic.AddInt64(&m.ConnsAccepted, 1) }
func (m *RoomMetrics) IncConnRejected()  { atomic.AddInt64(&m.ConnsRejected, 1) }

func (m *RoomMetrics) AddLoop(ns int64) {
	atomic.AddInt64(&m.LoopCount, 1)
	atomic.AddInt64(&m.TotalLoopNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	loops := atomic.LoadInt64(&m.LoopCount)
	total := atomic.LoadInt64(&m.TotalLoopNs)
	var avgUs float64
	if loops > 0 {
		avgUs = float64(total) / float64(loops) / 1e3
	}
	return map[string]any{
		"moves_accepted": atomic.LoadInt64(&m.MovesAccepted),
		"moves_rejected": atomic.LoadInt64(&m.MovesRejected),
		"id_mismatches":  atomic.LoadInt64(&m.IDMismatches),
		"malformed":      atomic.LoadInt64(&m.Malformed),
		"sync_requests":  atomic.LoadInt64(&m.SyncRequests),
		"broadcasts":     atomic.LoadInt64(&m.Broadcasts),
		"events_dropped": atomic.LoadInt64(&m.EventsDropped),
		"conns_accepted": atomic.LoadInt64(&m.ConnsAccepted),
		"conns_rejected": atomic.LoadInt64(&m.ConnsRejected),
		"inputs_handled": loops,
		"avg_input_us":   avgUs,
	}
}
