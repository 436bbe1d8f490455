// Package server adapts gorilla/websocket connections to the line-oriented
// Conn used by sessions, so browser clients join the same room as TCP clients.
package server

import (
	"bytes"
	"io"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/relaychat/internal/protocol"
)

// maxFrameSize caps a single inbound frame; anything past maxLine within the
// frame is discarded, anything past maxFrameSize closes the connection.
const maxFrameSize = 64 << 10

// wsConn is a WebSocket client. Every inbound text or binary frame is one line;
// every outbound write is one text frame.
type wsConn struct {
	conn         *websocket.Conn
	addr         string
	maxLine      int
	writeTimeout time.Duration
}

func newWSConn(conn *websocket.Conn, addr string, maxLine int, writeTimeout time.Duration) *wsConn {
	if maxLine <= 0 {
		maxLine = protocol.DefaultMaxLineLength
	}
	conn.SetReadLimit(maxFrameSize)
	// Idle peers keep their slot, so no read deadline is set.
	_ = conn.SetReadDeadline(time.Time{})
	return &wsConn{
		conn:         conn,
		addr:         addr,
		maxLine:      maxLine,
		writeTimeout: writeTimeout,
	}
}

func (c *wsConn) ReadLine() (string, error) {
	for {
		messageType, r, err := c.conn.NextReader()
		if err != nil {
			return "", err
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		data, err := io.ReadAll(io.LimitReader(r, int64(c.maxLine)+2))
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(io.Discard, r); err != nil {
			return "", err
		}

		data = bytes.TrimSuffix(data, []byte("\n"))
		data = bytes.TrimSuffix(data, []byte("\r"))
		return protocol.TruncateUTF8(string(data), c.maxLine), nil
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame before dropping the connection.
func (c *wsConn) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)
	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.addr
}
