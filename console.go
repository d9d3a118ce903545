package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"mazerace/client"
	"mazerace/game"
	"mazerace/logger"
	"mazerace/maze"
	"mazerace/server"
)

// controls stdin 命令可对本地玩家执行的操作
type controls interface {
	Move(d maze.Direction) error
	Sync() error
}

type hostControls struct{ room *server.Room }

func (h hostControls) Move(d maze.Direction) error { return h.room.Move(d) }

// Sync 在权威端无意义
func (h hostControls) Sync() error { return nil }

type joinControls struct{ sess *client.Session }

func (j joinControls) Move(d maze.Direction) error { return j.sess.SendMove(d) }
func (j joinControls) Sync() error                 { return j.sess.SendSync() }

// control 每行读取一条命令，直到 quit、EOF 或 ctx 结束
func control(ctx context.Context, in io.Reader, c controls) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd := strings.ToLower(strings.TrimSpace(line))
			var err error
			switch cmd {
			case "":
				continue
			case "quit", "q":
				return
			case "sync":
				err = c.Sync()
			default:
				d, perr := maze.ParseDirection(cmd)
				if perr != nil {
					fmt.Println("commands: up down left right sync quit")
					continue
				}
				err = c.Move(d)
			}
			if err != nil {
				fmt.Println("error:", err)
				logger.Log.Debugw("command failed", "cmd", cmd, "err", err)
			}
		}
	}
}

// render 将事件打印为文本行，本地玩家变化后打印视野内的小地图
func render(ctx context.Context, events <-chan game.Event, state func() *game.State, self func() int, radius int) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch ev.Kind {
			case game.EventGameStarted:
				fmt.Printf("race started: seed %d, exit at (%d,%d)\n", ev.Seed, ev.ExitX, ev.ExitY)
				printView(state(), self(), radius)
			case game.EventPosition:
				fmt.Printf("player %d -> (%d,%d) %s\n", ev.PlayerID, ev.X, ev.Y, ev.Direction)
				if ev.PlayerID == self() {
					printView(state(), self(), radius)
				}
			case game.EventGameEnded:
				if ev.WinnerID == self() {
					fmt.Printf("you won in %s\n", ev.Elapsed)
				} else {
					fmt.Printf("player %d won in %s\n", ev.WinnerID, ev.Elapsed)
				}
			case game.EventPeerJoined:
				fmt.Println("other player joined")
			case game.EventPeerLeft:
				fmt.Println("other player left")
			case game.EventDisconnected:
				fmt.Println("disconnected from host")
				return
			}
		}
	}
}

func printView(st *game.State, self, r int) {
	if st == nil {
		return
	}
	p, ok := st.Player(self)
	if !ok {
		return
	}
	ex, ey := st.Exit()
	others := st.Snapshot().Players

	var sb strings.Builder
	for y := p.Y - r; y <= p.Y+r; y++ {
		for x := p.X - r; x <= p.X+r; x++ {
			sb.WriteByte(cellGlyph(st, x, y, ex, ey, self, others))
		}
		sb.WriteByte('\n')
	}
	fmt.Print(sb.String())
}

func cellGlyph(st *game.State, x, y, ex, ey, self int, players []game.PlayerView) byte {
	for _, pv := range players {
		if pv.X == x && pv.Y == y {
			if pv.ID == self {
				return '@'
			}
			return 'O'
		}
	}
	switch {
	case x == ex && y == ey:
		return 'E'
	case st.IsWall(x, y):
		return '#'
	}
	return '.'
}
