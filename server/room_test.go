package server

import (
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mazerace/game"
	"mazerace/maze"
	"mazerace/transport"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	r := NewRoom(RoomConfig{Game: testConfig(), Logger: zaptest.NewLogger(t).Sugar()})
	r.Start()
	t.Cleanup(r.Stop)
	return r
}

func TestRoom_InitializeOnce(t *testing.T) {
	r := newTestRoom(t)
	if r.State().Phase() != game.Waiting {
		t.Fatal("new room should wait for the remote")
	}
	r.Initialize()
	r.State().AddPlayer(game.Player{ID: game.HostPlayerID, X: 3, Y: 3})
	r.Initialize()

	if p, _ := r.State().Player(game.HostPlayerID); p.X != 3 || p.Y != 3 {
		t.Fatalf("second Initialize reset the host to (%d,%d)", p.X, p.Y)
	}
	ev := waitEvent(t, r, game.EventGameStarted)
	if ev.Seed != testSeed {
		t.Fatalf("seed = %d", ev.Seed)
	}
	select {
	case ev := <-r.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestRoom_StartPositions(t *testing.T) {
	r := newTestRoom(t)
	r.Initialize()
	host, _ := r.State().Player(game.HostPlayerID)
	remote, _ := r.State().Player(game.RemotePlayerID)
	if host.X != 0 || host.Y != 0 {
		t.Fatalf("host at (%d,%d)", host.X, host.Y)
	}
	if remote.X != 19 || remote.Y != 19 {
		t.Fatalf("remote at (%d,%d)", remote.X, remote.Y)
	}
}

func TestRoom_SeedFromClock(t *testing.T) {
	c := testConfig()
	c.Seed = 0
	fixed := time.Unix(0, 987654321)
	r := NewRoom(RoomConfig{Game: c, Logger: zaptest.NewLogger(t).Sugar(), Clock: func() time.Time { return fixed }})
	r.Initialize()
	if got := r.State().Topology().Seed(); got != fixed.UnixNano() {
		t.Fatalf("seed = %d, want %d", got, fixed.UnixNano())
	}
}

func TestRoom_MoveBeforeJoinIgnored(t *testing.T) {
	r := newTestRoom(t)
	if err := r.Move(maze.Right); err != nil {
		t.Fatal(err)
	}
	// 第二个输入作为第一个的屏障
	if err := r.Move(maze.Down); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt64(&r.Metrics().LoopCount) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not handle the moves")
		}
		time.Sleep(time.Millisecond)
	}
	if got := atomic.LoadInt64(&r.Metrics().MovesRejected); got != 2 {
		t.Fatalf("rejected = %d, want 2", got)
	}
}

func TestRoom_EventsDroppedWhenFull(t *testing.T) {
	r := NewRoom(RoomConfig{Game: testConfig(), Logger: zaptest.NewLogger(t).Sugar()})
	for i := 0; i < eventQueueSize+3; i++ {
		r.emit(game.Event{Kind: game.EventPosition})
	}
	if got := atomic.LoadInt64(&r.Metrics().EventsDropped); got != 3 {
		t.Fatalf("dropped = %d, want 3", got)
	}
}

func TestRoom_StoppedRejectsInput(t *testing.T) {
	r := NewRoom(RoomConfig{Game: testConfig(), Logger: zaptest.NewLogger(t).Sugar()})
	r.Start()
	r.Stop()
	r.Stop()
	if err := r.Move(maze.Up); !errors.Is(err, ErrRoomStopped) {
		t.Fatalf("Move = %v", err)
	}
	if _, err := r.Join(nil); !errors.Is(err, ErrRoomStopped) {
		t.Fatalf("Join = %v", err)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := &RoomMetrics{}
	m.IncAccepted()
	m.IncAccepted()
	m.AddLoop(3000)
	m.AddLoop(1000)
	snap := m.Snapshot()
	if snap["moves_accepted"] != int64(2) {
		t.Fatalf("moves_accepted = %v", snap["moves_accepted"])
	}
	if snap["avg_input_us"] != 2.0 {
		t.Fatalf("avg_input_us = %v", snap["avg_input_us"])
	}
}

func TestRoom_GameEndedEventNotDropped(t *testing.T) {
	r := NewRoom(RoomConfig{Game: testConfig(), Logger: zaptest.NewLogger(t).Sugar()})
	for i := 0; i < eventQueueSize; i++ {
		r.emit(game.Event{Kind: game.EventPosition})
	}
	sent := make(chan struct{})
	go func() {
		r.emit(game.Event{Kind: game.EventGameEnded, WinnerID: game.HostPlayerID})
		close(sent)
	}()

	for i := 0; i < eventQueueSize; i++ {
		<-r.Events()
	}
	select {
	case ev := <-r.Events():
		if ev.Kind != game.EventGameEnded || ev.WinnerID != game.HostPlayerID {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("game end event lost")
	}
	<-sent
	if got := atomic.LoadInt64(&r.Metrics().EventsDropped); got != 0 {
		t.Fatalf("dropped = %d", got)
	}
}

func TestRoom_GameEndedEmitReleasedByStop(t *testing.T) {
	r := NewRoom(RoomConfig{Game: testConfig(), Logger: zaptest.NewLogger(t).Sugar()})
	for i := 0; i < eventQueueSize; i++ {
		r.emit(game.Event{Kind: game.EventPosition})
	}
	sent := make(chan struct{})
	go func() {
		r.emit(game.Event{Kind: game.EventGameEnded})
		close(sent)
	}()
	r.Stop()
	select {
	case <-sent:
	case <-time.After(3 * time.Second):
		t.Fatal("emit still blocked after Stop")
	}
}

func TestReadPump_StopsWhenRoomStopped(t *testing.T) {
	r := NewRoom(RoomConfig{Game: testConfig(), Logger: zaptest.NewLogger(t).Sugar()})
	r.Start()
	r.Stop()

	a, b := net.Pipe()
	defer a.Close()
	cc := newClientConn(transport.NewTCP(b), game.RemotePlayerID, zaptest.NewLogger(t).Sugar())
	defer cc.Close()

	done := make(chan struct{})
	go func() {
		cc.readPump(r)
		close(done)
	}()
	if _, err := a.Write([]byte("PLAYER_MOVE|2|up\n")); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("read loop kept running after the room stopped")
	}
}
