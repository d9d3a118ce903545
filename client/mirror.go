package client

import (
	"time"

	"mazerace/game"
	"mazerace/maze"
	"mazerace/protocol"
)

func (s *Session) handle(msg protocol.Message) {
	switch msg.Type {
	case protocol.GameStart:
		info, err := protocol.ParseStartInfo(msg)
		if err != nil {
			s.log.Debugw("dropping GAME_START", "err", err)
			return
		}
		s.onStart(info)
	case protocol.PlayerPosition:
		pos, err := protocol.ParsePosition(msg)
		if err != nil {
			s.log.Debugw("dropping PLAYER_POSITION", "err", err)
			return
		}
		s.onPosition(pos)
	case protocol.GameEnd:
		res, err := protocol.ParseResult(msg)
		if err != nil {
			s.log.Debugw("dropping GAME_END", "err", err)
			return
		}
		s.onEnd(res)
	default:
		s.log.Debugw("ignoring host-bound message", "type", msg.Type)
	}
}

// onStart 首个 GAME_START 构建镜像；之后的 GAME_START 是同步应答，
// 只恢复本地玩家位置
func (s *Session) onStart(info protocol.StartInfo) {
	s.mu.Lock()
	st := s.state
	if st != nil {
		s.mu.Unlock()
		s.resync(st, info)
		return
	}

	w, h := s.cfg.Width, s.cfg.Height
	topo := maze.New(w, h, info.Seed)
	if ex, ey := topo.Exit(); ex != info.ExitX || ey != info.ExitY {
		s.log.Errorw("derived exit differs from host, peers disagree on the maze",
			"seed", info.Seed, "derived", []int{ex, ey}, "host", []int{info.ExitX, info.ExitY})
	}

	st = game.NewState(game.WithClock(s.now))
	opponent := opponentOf(info.PlayerID)
	ox, oy := game.StartPosition(opponent, w, h)
	st.AddPlayer(game.Player{ID: info.PlayerID, X: info.StartX, Y: info.StartY, Direction: maze.Down})
	st.AddPlayer(game.Player{ID: opponent, X: ox, Y: oy, Direction: maze.Down})
	st.Initialize(topo, info.ExitX, info.ExitY)

	s.state = st
	s.playerID = info.PlayerID
	s.mu.Unlock()

	s.log.Infow("match started",
		"player", info.PlayerID,
		"seed", info.Seed,
		"strategy", topo.Strategy(),
		"fingerprint", topo.Fingerprint(),
		"exit", []int{info.ExitX, info.ExitY})
	s.emit(game.Event{
		Kind:     game.EventGameStarted,
		PlayerID: info.PlayerID,
		X:        info.StartX,
		Y:        info.StartY,
		ExitX:    info.ExitX,
		ExitY:    info.ExitY,
		Seed:     info.Seed,
	})
}

func (s *Session) resync(st *game.State, info protocol.StartInfo) {
	if topo := st.Topology(); topo.Seed() != info.Seed {
		s.log.Warnw("ignoring GAME_START for another maze", "seed", info.Seed, "current", topo.Seed())
		return
	}
	p, ok := st.Player(info.PlayerID)
	if !ok {
		return
	}
	if st.SetPosition(info.PlayerID, info.StartX, info.StartY, p.Direction) {
		s.emit(game.Event{
			Kind:      game.EventPosition,
			PlayerID:  info.PlayerID,
			X:         info.StartX,
			Y:         info.StartY,
			Direction: p.Direction,
		})
	}
}

func (s *Session) onPosition(pos protocol.Position) {
	st := s.State()
	if st == nil {
		s.log.Debugw("position before GAME_START", "player", pos.PlayerID)
		return
	}
	d, err := maze.ParseDirection(pos.Direction)
	if err != nil {
		s.log.Debugw("dropping PLAYER_POSITION", "err", err)
		return
	}
	if !st.SetPosition(pos.PlayerID, pos.X, pos.Y, d) {
		return
	}
	s.emit(game.Event{
		Kind:      game.EventPosition,
		PlayerID:  pos.PlayerID,
		X:         pos.X,
		Y:         pos.Y,
		Direction: d,
	})
}

func (s *Session) onEnd(res protocol.Result) {
	st := s.State()
	if st == nil {
		s.log.Debugw("GAME_END before GAME_START", "winner", res.WinnerID)
		return
	}
	elapsed := time.Duration(res.ElapsedMillis) * time.Millisecond
	// 获胜的那一步不会以位置广播，玩家已停在出口
	if p, ok := st.Player(res.WinnerID); ok {
		ex, ey := st.Exit()
		st.SetPosition(res.WinnerID, ex, ey, p.Direction)
	}
	if !st.End(res.WinnerID, elapsed) {
		return
	}
	s.log.Infow("match ended", "winner", res.WinnerID, "elapsed", elapsed, "won", res.WinnerID == s.PlayerID())
	s.emit(game.Event{
		Kind:     game.EventGameEnded,
		PlayerID: res.WinnerID,
		WinnerID: res.WinnerID,
		Elapsed:  elapsed,
	})
}

func opponentOf(id int) int {
	if id == game.HostPlayerID {
		return game.RemotePlayerID
	}
	return game.HostPlayerID
}
