// Package protocol 将对局消息编码为以换行结尾、'|' 分隔字段的文本行，
// 第一个字段为类型标记。
package protocol

import (
	"strings"
)

const (
	// Separator 字段分隔符
	Separator = "|"
	// Terminator 行结束符
	Terminator = "\n"
)

// Type 消息类型标记（精确匹配，区分大小写）
type Type string

const (
	GameStart      Type = "GAME_START"
	PlayerPosition Type = "PLAYER_POSITION"
	GameEnd        Type = "GAME_END"
	PlayerMove     Type = "PLAYER_MOVE"
	SyncRequest    Type = "SYNC_REQUEST"
)

// fieldCounts 各类型必需的数据字段数
var fieldCounts = map[Type]int{
	GameStart:      6,
	PlayerPosition: 4,
	GameEnd:        2,
	PlayerMove:     2,
	SyncRequest:    1,
}

// FieldCount 返回 t 携带的数据字段数，未知类型返回 -1
func (t Type) FieldCount() int {
	n, ok := fieldCounts[t]
	if !ok {
		return -1
	}
	return n
}

// Message 解码后的一行：类型及有序的数据字段
type Message struct {
	Type   Type
	Fields []string
}

// Encode 将 m 编码为一行（含结束符）；字段不能包含分隔符或换行
func Encode(m Message) string {
	var sb strings.Builder
	sb.WriteString(string(m.Type))
	for _, f := range m.Fields {
		sb.WriteString(Separator)
		sb.WriteString(f)
	}
	sb.WriteString(Terminator)
	return sb.String()
}

// Decode 解析一行。空行、未知类型或字段不足时返回 false，
// 调用方直接丢弃
func Decode(line string) (Message, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Message{}, false
	}
	parts := strings.Split(line, Separator)
	t := Type(parts[0])
	need := t.FieldCount()
	if need < 0 || len(parts)-1 < need {
		return Message{}, false
	}
	return Message{Type: t, Fields: parts[1:]}, true
}
