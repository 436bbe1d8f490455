// Package server adapts accepted TCP connections to the line-oriented Conn
// used by sessions.
package server

import (
	"net"
	"time"

	"github.com/Tyrowin/relaychat/internal/protocol"
)

type tcpConn struct {
	conn         net.Conn
	lines        *protocol.LineReader
	writeTimeout time.Duration
}

func newTCPConn(conn net.Conn, maxLine int, writeTimeout time.Duration) *tcpConn {
	return &tcpConn{
		conn:         conn,
		lines:        protocol.NewLineReader(conn, maxLine),
		writeTimeout: writeTimeout,
	}
}

func (c *tcpConn) ReadLine() (string, error) {
	return c.lines.ReadLine()
}

func (c *tcpConn) Write(p []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return c.conn.Write(p)
}

// Close shuts down both directions before releasing the descriptor.
func (c *tcpConn) Close() error {
	if tcp, ok := c.conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
		_ = tcp.CloseRead()
	}
	return c.conn.Close()
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
