package game

import "sort"

// PlayerView 玩家的只读视图，供展示层与管理接口使用
type PlayerView struct {
	ID         int    `json:"id"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Direction  string `json:"direction"`
	Finished   bool   `json:"finished"`
	FinishTime int64  `json:"finishTimeMs,omitempty"`
}

// Snapshot 整个状态的一致副本
type Snapshot struct {
	Phase     string       `json:"phase"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Seed      int64        `json:"seed"`
	ExitX     int          `json:"exitX"`
	ExitY     int          `json:"exitY"`
	ElapsedMs int64        `json:"elapsedMs"`
	WinnerID  int          `json:"winnerId"`
	Players   []PlayerView `json:"players"`
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Phase:     s.phase.String(),
		ExitX:     s.exitX,
		ExitY:     s.exitY,
		ElapsedMs: s.elapsedLocked().Milliseconds(),
		WinnerID:  s.winnerID,
		Players:   make([]PlayerView, 0, len(s.players)),
	}
	if s.topology != nil {
		snap.Width = s.topology.Width()
		snap.Height = s.topology.Height()
		snap.Seed = s.topology.Seed()
	}
	for _, p := range s.players {
		snap.Players = append(snap.Players, PlayerView{
			ID:         p.ID,
			X:          p.X,
			Y:          p.Y,
			Direction:  p.Direction.String(),
			Finished:   p.Finished,
			FinishTime: p.FinishTime,
		})
	}
	sort.Slice(snap.Players, func(i, j int) bool { return snap.Players[i].ID < snap.Players[j].ID })
	return snap
}
