package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrWrongType  = errors.New("wrong message type")
	ErrFieldCount = errors.New("too few fields")
)

// StartInfo GAME_START 载荷：远端在本地重建对局所需的全部信息
type StartInfo struct {
	PlayerID       int
	Seed           int64
	StartX, StartY int
	ExitX, ExitY   int
}

func (s StartInfo) Message() Message {
	return Message{Type: GameStart, Fields: []string{
		strconv.Itoa(s.PlayerID),
		strconv.FormatInt(s.Seed, 10),
		strconv.Itoa(s.StartX),
		strconv.Itoa(s.StartY),
		strconv.Itoa(s.ExitX),
		strconv.Itoa(s.ExitY),
	}}
}

// Position PLAYER_POSITION 载荷
type Position struct {
	PlayerID  int
	X, Y      int
	Direction string
}

func (p Position) Message() Message {
	return Message{Type: PlayerPosition, Fields: []string{
		strconv.Itoa(p.PlayerID),
		strconv.Itoa(p.X),
		strconv.Itoa(p.Y),
		p.Direction,
	}}
}

// Result GAME_END 载荷
type Result struct {
	WinnerID      int
	ElapsedMillis int64
}

func (r Result) Message() Message {
	return Message{Type: GameEnd, Fields: []string{
		strconv.Itoa(r.WinnerID),
		strconv.FormatInt(r.ElapsedMillis, 10),
	}}
}

// Move PLAYER_MOVE 载荷
type Move struct {
	PlayerID  int
	Direction string
}

func (m Move) Message() Message {
	return Message{Type: PlayerMove, Fields: []string{strconv.Itoa(m.PlayerID), m.Direction}}
}

// Sync SYNC_REQUEST 载荷
type Sync struct {
	PlayerID int
}

func (s Sync) Message() Message {
	return Message{Type: SyncRequest, Fields: []string{strconv.Itoa(s.PlayerID)}}
}

// fields 类型化解析前检查 m 的类型与字段数
func fields(m Message, t Type) ([]string, error) {
	if m.Type != t {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongType, m.Type, t)
	}
	if len(m.Fields) < t.FieldCount() {
		return nil, fmt.Errorf("%w: %s has %d", ErrFieldCount, t, len(m.Fields))
	}
	return m.Fields, nil
}

// intParser 记录第一个数字解析错误，使载荷解析可以顺序读取字段
type intParser struct {
	err error
}

func (p *intParser) atoi(name, s string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.err = fmt.Errorf("field %s: %w", name, err)
	}
	return v
}

func (p *intParser) atoi64(name, s string) int64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		p.err = fmt.Errorf("field %s: %w", name, err)
	}
	return v
}

func ParseStartInfo(m Message) (StartInfo, error) {
	f, err := fields(m, GameStart)
	if err != nil {
		return StartInfo{}, err
	}
	var p intParser
	s := StartInfo{
		PlayerID: p.atoi("playerId", f[0]),
		Seed:     p.atoi64("mazeSeed", f[1]),
		StartX:   p.atoi("startX", f[2]),
		StartY:   p.atoi("startY", f[3]),
		ExitX:    p.atoi("exitX", f[4]),
		ExitY:    p.atoi("exitY", f[5]),
	}
	return s, p.err
}

func ParsePosition(m Message) (Position, error) {
	f, err := fields(m, PlayerPosition)
	if err != nil {
		return Position{}, err
	}
	var p intParser
	pos := Position{
		PlayerID:  p.atoi("playerId", f[0]),
		X:         p.atoi("x", f[1]),
		Y:         p.atoi("y", f[2]),
		Direction: f[3],
	}
	return pos, p.err
}

func ParseResult(m Message) (Result, error) {
	f, err := fields(m, GameEnd)
	if err != nil {
		return Result{}, err
	}
	var p intParser
	r := Result{
		WinnerID:      p.atoi("winnerId", f[0]),
		ElapsedMillis: p.atoi64("elapsedMillis", f[1]),
	}
	return r, p.err
}

func ParseMove(m Message) (Move, error) {
	f, err := fields(m, PlayerMove)
	if err != nil {
		return Move{}, err
	}
	var p intParser
	mv := Move{PlayerID: p.atoi("playerId", f[0]), Direction: f[1]}
	return mv, p.err
}

func ParseSync(m Message) (Sync, error) {
	f, err := fields(m, SyncRequest)
	if err != nil {
		return Sync{}, err
	}
	var p intParser
	s := Sync{PlayerID: p.atoi("playerId", f[0])}
	return s, p.err
}
