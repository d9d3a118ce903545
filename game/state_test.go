package game

import (
	"reflect"
	"testing"
	"time"

	"mazerace/maze"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newActiveState(t *testing.T) (*State, *maze.Topology, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	topo := maze.New(20, 20, 42)
	s := NewState(WithClock(clock.now))
	ex, ey := topo.Exit()
	s.Initialize(topo, ex, ey)
	s.AddPlayer(Player{ID: HostPlayerID})
	s.AddPlayer(Player{ID: RemotePlayerID, X: 19, Y: 19})
	return s, topo, clock
}

// findStep 返回一个通道格及方向，其目标格的可通行性与 open 一致
func findStep(t *testing.T, topo *maze.Topology, open bool) (int, int, maze.Direction) {
	t.Helper()
	ex, ey := topo.Exit()
	for y := 0; y < topo.Height(); y++ {
		for x := 0; x < topo.Width(); x++ {
			if topo.IsWall(x, y) {
				continue
			}
			for _, d := range maze.Directions {
				dx, dy := d.Delta()
				if x+dx == ex && y+dy == ey {
					continue
				}
				if topo.CanMove(x, y, d) == open {
					return x, y, d
				}
			}
		}
	}
	t.Fatalf("no step with open=%v", open)
	return 0, 0, 0
}

// exitNeighbour 返回出口旁的通道格及通向出口的方向
func exitNeighbour(t *testing.T, topo *maze.Topology, skip int) (int, int, maze.Direction) {
	t.Helper()
	ex, ey := topo.Exit()
	for _, d := range maze.Directions {
		dx, dy := d.Delta()
		x, y := ex-dx, ey-dy
		if topo.InBounds(x, y) && !topo.IsWall(x, y) {
			if skip == 0 {
				return x, y, d
			}
			skip--
		}
	}
	t.Fatal("exit has no open neighbour")
	return 0, 0, 0
}

func TestPhaseTransitions(t *testing.T) {
	s := NewState()
	if s.Phase() != Waiting {
		t.Fatalf("new state phase = %s", s.Phase())
	}
	if s.ElapsedTime() != 0 {
		t.Fatal("elapsed time before start must be zero")
	}
	if !s.IsWall(0, 0) {
		t.Fatal("without a topology every cell is a wall")
	}

	s, _, _ = newActiveState(t)
	if s.Phase() != Active {
		t.Fatalf("initialized state phase = %s", s.Phase())
	}
}

func TestCheckWin_WaitingNeverWins(t *testing.T) {
	s := NewState()
	s.AddPlayer(Player{ID: HostPlayerID})
	if s.CheckWin(HostPlayerID, 0, 0) {
		t.Fatal("CheckWin before Initialize reported a win")
	}
	if s.Phase() != Waiting || s.WinnerID() != 0 {
		t.Fatalf("phase = %s winner = %d, want waiting with no winner", s.Phase(), s.WinnerID())
	}
	if p, _ := s.Player(HostPlayerID); p.Finished {
		t.Fatal("player finished before the match started")
	}
}

func TestState_LockIsPrivate(t *testing.T) {
	typ := reflect.TypeOf(&State{})
	for _, name := range []string{"Lock", "Unlock", "RLock", "RUnlock"} {
		if _, ok := typ.MethodByName(name); ok {
			t.Fatalf("State exposes %s", name)
		}
	}
}

func TestApplyMove_Valid(t *testing.T) {
	s, topo, _ := newActiveState(t)
	x, y, d := findStep(t, topo, true)
	s.AddPlayer(Player{ID: HostPlayerID, X: x, Y: y})

	res := s.ApplyMove(HostPlayerID, d)
	if !res.Moved {
		t.Fatalf("move %s from (%d,%d) should succeed", d, x, y)
	}
	dx, dy := d.Delta()
	p, _ := s.Player(HostPlayerID)
	if p.X != x+dx || p.Y != y+dy || p.Direction != d {
		t.Fatalf("player at (%d,%d) facing %s, want (%d,%d) facing %s", p.X, p.Y, p.Direction, x+dx, y+dy, d)
	}
	if res.Player != p {
		t.Fatalf("result player %+v differs from state %+v", res.Player, p)
	}
}

func TestApplyMove_WallLeavesPlayerUnchanged(t *testing.T) {
	s, topo, _ := newActiveState(t)
	x, y, d := findStep(t, topo, false)
	before := Player{ID: HostPlayerID, X: x, Y: y, Direction: maze.Down}
	s.AddPlayer(before)

	if res := s.ApplyMove(HostPlayerID, d); res.Moved {
		t.Fatalf("move %s from (%d,%d) into a wall was applied", d, x, y)
	}
	if p, _ := s.Player(HostPlayerID); p != before {
		t.Fatalf("player changed to %+v", p)
	}
}

func TestApplyMove_OutOfBounds(t *testing.T) {
	s, _, _ := newActiveState(t)
	if res := s.ApplyMove(HostPlayerID, maze.Up); res.Moved {
		t.Fatal("move off the grid was applied")
	}
	if res := s.ApplyMove(RemotePlayerID, maze.Right); res.Moved {
		t.Fatal("move off the grid was applied")
	}
}

func TestApplyMove_NoOps(t *testing.T) {
	s := NewState()
	s.AddPlayer(Player{ID: HostPlayerID})
	if res := s.ApplyMove(HostPlayerID, maze.Right); res.Moved {
		t.Fatal("move before Initialize was applied")
	}

	s, topo, _ := newActiveState(t)
	if res := s.ApplyMove(7, maze.Right); res.Moved {
		t.Fatal("move by unknown player was applied")
	}

	x, y, d := findStep(t, topo, true)
	s.AddPlayer(Player{ID: HostPlayerID, X: x, Y: y, Finished: true})
	if res := s.ApplyMove(HostPlayerID, d); res.Moved {
		t.Fatal("move by finished player was applied")
	}
}

func TestWinRace_FirstWriterWins(t *testing.T) {
	s, topo, clock := newActiveState(t)
	ex, ey := topo.Exit()

	x1, y1, d1 := exitNeighbour(t, topo, 0)
	s.AddPlayer(Player{ID: HostPlayerID, X: x1, Y: y1})
	s.AddPlayer(Player{ID: RemotePlayerID, X: x1, Y: y1})

	clock.advance(1500 * time.Millisecond)
	res := s.ApplyMove(HostPlayerID, d1)
	if !res.Moved || !res.Won || !res.Ended {
		t.Fatalf("winning move result = %+v", res)
	}
	if s.WinnerID() != HostPlayerID || s.Phase() != Ended {
		t.Fatalf("winner=%d phase=%s", s.WinnerID(), s.Phase())
	}
	p1, _ := s.Player(HostPlayerID)
	if !p1.Finished || p1.FinishTime != 1500 {
		t.Fatalf("winner not stamped: %+v", p1)
	}

	// 对局结束后迟到的移动直接被拒绝
	if res := s.ApplyMove(RemotePlayerID, d1); res.Moved || res.Ended {
		t.Fatalf("move after end = %+v", res)
	}
	// 迟到的胜负判定仍报告出口，但胜者不变
	if !s.CheckWin(RemotePlayerID, ex, ey) {
		t.Fatal("CheckWin on the exit must return true")
	}
	if s.WinnerID() != HostPlayerID {
		t.Fatalf("winner changed to %d", s.WinnerID())
	}
	if p2, _ := s.Player(RemotePlayerID); p2.Finished {
		t.Fatal("late arrival must not be stamped finished")
	}
	if s.CheckWin(RemotePlayerID, 0, 0) {
		t.Fatal("CheckWin off the exit must return false")
	}
}

func TestElapsedTime(t *testing.T) {
	s, _, clock := newActiveState(t)
	clock.advance(2 * time.Second)
	if got := s.ElapsedTime(); got != 2*time.Second {
		t.Fatalf("elapsed = %s", got)
	}
}

func TestMirror_SetPositionAndEnd(t *testing.T) {
	s, _, _ := newActiveState(t)

	if !s.SetPosition(RemotePlayerID, 18, 19, maze.Left) {
		t.Fatal("SetPosition on an active player was ignored")
	}
	if p, _ := s.Player(RemotePlayerID); p.X != 18 || p.Direction != maze.Left {
		t.Fatalf("mirror position = %+v", p)
	}
	if s.SetPosition(9, 1, 1, maze.Up) {
		t.Fatal("SetPosition on unknown player was applied")
	}

	if !s.End(RemotePlayerID, 4200*time.Millisecond) {
		t.Fatal("first End was ignored")
	}
	if s.End(HostPlayerID, time.Second) {
		t.Fatal("second End was applied")
	}
	if s.WinnerID() != RemotePlayerID {
		t.Fatalf("winner = %d", s.WinnerID())
	}
	if p, _ := s.Player(RemotePlayerID); !p.Finished || p.FinishTime != 4200 {
		t.Fatalf("winner not stamped: %+v", p)
	}
	if s.SetPosition(HostPlayerID, 1, 0, maze.Right) {
		t.Fatal("SetPosition after end was applied")
	}
}

func TestSnapshot(t *testing.T) {
	s, topo, clock := newActiveState(t)
	clock.advance(250 * time.Millisecond)
	snap := s.Snapshot()
	ex, ey := topo.Exit()
	if snap.Phase != "active" || snap.Width != 20 || snap.Seed != 42 || snap.ExitX != ex || snap.ExitY != ey {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.ElapsedMs != 250 {
		t.Fatalf("elapsed = %d", snap.ElapsedMs)
	}
	if len(snap.Players) != 2 || snap.Players[0].ID != 1 || snap.Players[1].ID != 2 {
		t.Fatalf("players = %+v", snap.Players)
	}
}
