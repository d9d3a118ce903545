package server

import (
	"time"

	"mazerace/game"
	"mazerace/protocol"
	"mazerace/transport"
)

// Start 启动房间循环，重复调用无效果
func (r *Room) Start() {
	r.startOnce.Do(func() {
		r.started.Store(true)
		go r.run()
	})
}

// Stop 结束循环，并关闭远端会话（如有）
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
	if r.started.Load() {
		<-r.stopped
	}
}

// run 唯一写者：加入、离开与意图逐个处理，
// 每个处理完并广播后才读取下一个
func (r *Room) run() {
	defer close(r.stopped)
	for {
		select {
		case <-r.done:
			if r.remote != nil {
				_ = r.remote.Close()
				r.remote = nil
			}
			return
		case req := <-r.joinChan:
			cc, err := r.handleJoin(req.conn)
			req.reply <- joinReply{cc: cc, err: err}
		case cc := <-r.leaveChan:
			r.handleLeave(cc)
		case in := <-r.inputChan:
			start := time.Now()
			r.handleInput(in)
			r.metrics.AddLoop(time.Since(start).Nanoseconds())
		}
	}
}

func (r *Room) handleJoin(conn transport.Conn) (*ClientConn, error) {
	if r.remoteSeen {
		r.metrics.IncConnRejected()
		return nil, ErrRemoteTaken
	}
	cc := newClientConn(conn, game.RemotePlayerID, r.log)
	r.remote = cc
	r.remoteSeen = true
	r.metrics.IncConnAccepted()

	r.Initialize()
	r.sendStart(cc)

	cc.log.Infow("remote player joined")
	r.emit(game.Event{Kind: game.EventPeerJoined, PlayerID: cc.PlayerID})
	return cc, nil
}

func (r *Room) handleLeave(cc *ClientConn) {
	if r.remote != cc {
		return
	}
	r.remote = nil
	cc.log.Infow("remote player left")
	r.emit(game.Event{Kind: game.EventPeerLeft, PlayerID: cc.PlayerID})
}

func (r *Room) handleInput(in Input) {
	switch in.Kind {
	case inputSync:
		r.metrics.IncSync()
		if in.From != nil {
			r.sendStart(in.From)
		}
	case inputMove:
		r.applyMove(in)
	}
}

func (r *Room) sendStart(cc *ClientConn) {
	if r.state.Phase() == game.Waiting {
		return
	}
	info, ok := r.startInfo(cc.PlayerID)
	if !ok {
		return
	}
	cc.Enqueue(info.Message())
}

func (r *Room) applyMove(in Input) {
	res := r.state.ApplyMove(in.PlayerID, in.Direction)
	if !res.Moved {
		r.metrics.IncRejected()
		r.log.Debugw("move rejected", "player", in.PlayerID, "direction", in.Direction.String())
		return
	}
	r.metrics.IncAccepted()

	p := res.Player
	if res.Ended {
		elapsed := time.Duration(p.FinishTime) * time.Millisecond
		r.log.Infow("match won", "winner", p.ID, "elapsed", elapsed)
		r.broadcast(protocol.Result{WinnerID: p.ID, ElapsedMillis: p.FinishTime}.Message(), game.Event{
			Kind:     game.EventGameEnded,
			PlayerID: p.ID,
			WinnerID: p.ID,
			Elapsed:  elapsed,
		})
		return
	}
	r.broadcast(protocol.Position{PlayerID: p.ID, X: p.X, Y: p.Y, Direction: p.Direction.String()}.Message(), game.Event{
		Kind:      game.EventPosition,
		PlayerID:  p.ID,
		X:         p.X,
		Y:         p.Y,
		Direction: p.Direction,
	})
}

// broadcast 将 m 发给远端会话，将 ev 推给主机本地视图
func (r *Room) broadcast(m protocol.Message, ev game.Event) {
	r.metrics.IncBroadcast()
	if r.remote != nil && !r.remote.Enqueue(m) {
		r.log.Debugw("remote closed during broadcast", "type", m.Type)
	}
	r.emit(ev)
}
