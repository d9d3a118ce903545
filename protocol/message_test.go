package protocol

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	msgs := []Message{
		StartInfo{PlayerID: 2, Seed: -9223372036854775808, StartX: 19, StartY: 19, ExitX: 7, ExitY: 12}.Message(),
		Position{PlayerID: 1, X: 3, Y: 0, Direction: "right"}.Message(),
		Result{WinnerID: 1, ElapsedMillis: 73512}.Message(),
		Move{PlayerID: 2, Direction: "up"}.Message(),
		Sync{PlayerID: 2}.Message(),
	}
	for _, m := range msgs {
		line := Encode(m)
		got, ok := Decode(line)
		if !ok {
			t.Fatalf("Decode(%q) reported no message", line)
		}
		if !reflect.DeepEqual(got, m) {
			t.Fatalf("round trip of %q: got %+v, want %+v", line, got, m)
		}
	}
}

func TestEncode_Format(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{Position{PlayerID: 1, X: 6, Y: 5, Direction: "right"}.Message(), "PLAYER_POSITION|1|6|5|right\n"},
		{Result{WinnerID: 1, ElapsedMillis: 900}.Message(), "GAME_END|1|900\n"},
		{Move{PlayerID: 1, Direction: "right"}.Message(), "PLAYER_MOVE|1|right\n"},
		{Sync{PlayerID: 2}.Message(), "SYNC_REQUEST|2\n"},
		{StartInfo{PlayerID: 2, Seed: 42, StartX: 19, StartY: 19, ExitX: 4, ExitY: 9}.Message(), "GAME_START|2|42|19|19|4|9\n"},
	}
	for _, tt := range tests {
		if got := Encode(tt.msg); got != tt.want {
			t.Errorf("Encode = %q, want %q", got, tt.want)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"HELLO|1",
		"player_move|1|up",
		"PLAYER_MOVE|1",
		"GAME_START|2|42|19|19|4",
		"GAME_END",
		"PLAYER_POSITION|1|2|3",
		"SYNC_REQUEST",
	}
	for _, line := range lines {
		if m, ok := Decode(line); ok {
			t.Errorf("Decode(%q) = %+v, want no message", line, m)
		}
	}
}

func TestDecode_TrimsWhitespace(t *testing.T) {
	m, ok := Decode("  PLAYER_MOVE|2|left\r\n")
	if !ok {
		t.Fatal("expected a message")
	}
	mv, err := ParseMove(m)
	if err != nil {
		t.Fatal(err)
	}
	if mv.PlayerID != 2 || mv.Direction != "left" {
		t.Fatalf("move = %+v", mv)
	}
}

func TestParse_TypedPayloads(t *testing.T) {
	m, _ := Decode("GAME_START|2|123456789012|19|19|8|3")
	start, err := ParseStartInfo(m)
	if err != nil {
		t.Fatal(err)
	}
	want := StartInfo{PlayerID: 2, Seed: 123456789012, StartX: 19, StartY: 19, ExitX: 8, ExitY: 3}
	if start != want {
		t.Fatalf("start = %+v, want %+v", start, want)
	}

	m, _ = Decode("PLAYER_POSITION|1|4|5|down")
	pos, err := ParsePosition(m)
	if err != nil || pos != (Position{PlayerID: 1, X: 4, Y: 5, Direction: "down"}) {
		t.Fatalf("position = %+v, %v", pos, err)
	}

	m, _ = Decode("GAME_END|2|15000")
	res, err := ParseResult(m)
	if err != nil || res != (Result{WinnerID: 2, ElapsedMillis: 15000}) {
		t.Fatalf("result = %+v, %v", res, err)
	}

	m, _ = Decode("SYNC_REQUEST|2")
	sync, err := ParseSync(m)
	if err != nil || sync.PlayerID != 2 {
		t.Fatalf("sync = %+v, %v", sync, err)
	}
}

func TestParse_NumericFailures(t *testing.T) {
	m, ok := Decode("PLAYER_MOVE|one|up")
	if !ok {
		t.Fatal("structurally valid line should decode")
	}
	_, err := ParseMove(m)
	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected a NumError, got %v", err)
	}

	m, _ = Decode("GAME_START|2|notaseed|19|19|8|3")
	if _, err := ParseStartInfo(m); err == nil {
		t.Fatal("bad seed should fail")
	}
}

func TestParse_WrongTypeAndShortFields(t *testing.T) {
	if _, err := ParseMove(Sync{PlayerID: 1}.Message()); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
	short := Message{Type: GameEnd, Fields: []string{"1"}}
	if _, err := ParseResult(short); !errors.Is(err, ErrFieldCount) {
		t.Fatalf("expected ErrFieldCount, got %v", err)
	}
}

func TestFieldCount(t *testing.T) {
	if GameStart.FieldCount() != 6 || SyncRequest.FieldCount() != 1 {
		t.Fatal("unexpected field counts")
	}
	if Type("NOPE").FieldCount() != -1 {
		t.Fatal("unknown type should report -1")
	}
}
