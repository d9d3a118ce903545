// Package transport 在 TCP 流或 WebSocket 上传输协议行，
// 无论哪种方式，一次读取返回一行。
package transport

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync"
)

// Conn 按行收发的双工连接；写入串行化，同一连接上的行按调用顺序到达
type Conn interface {
	// ReadLine 阻塞直到读到整行、EOF 或出错，返回值不含换行符
	ReadLine() (string, error)
	// WriteLine 发送一行，缺少 "\n" 时自动补上
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

// maxLineSize 单行协议消息的上限
const maxLineSize = 64 * 1024

// ErrLineTooLong 行超过 maxLineSize；该行已读完并丢弃，连接仍可继续使用
var ErrLineTooLong = errors.New("line too long")

type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader
	wmu    sync.Mutex
}

// NewTCP 包装一条流式连接
func NewTCP(c net.Conn) Conn {
	return &tcpConn{
		conn:   c,
		reader: bufio.NewReaderSize(c, 4096),
	}
}

func (c *tcpConn) ReadLine() (string, error) {
	var sb strings.Builder
	tooLong := false
	for {
		chunk, isPrefix, err := c.reader.ReadLine()
		if err != nil {
			return "", err
		}
		if !tooLong && sb.Len()+len(chunk) > maxLineSize {
			tooLong = true
			sb.Reset()
		}
		if !tooLong {
			sb.Write(chunk)
		}
		if isPrefix {
			continue
		}
		if tooLong {
			return "", ErrLineTooLong
		}
		return sb.String(), nil
	}
}

func (c *tcpConn) WriteLine(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.conn.Write([]byte(line))
	return err
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
