package client

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Listen forwards everything read from r to send as ServerMsg values until r
// fails, then sends a single DisconnectedMsg. It is meant to run on its own
// goroutine with send set to (*tea.Program).Send.
func Listen(r io.Reader, send func(tea.Msg)) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			send(ServerMsg(buf[:n]))
		}
		if err != nil {
			send(DisconnectedMsg{Err: err})
			return
		}
	}
}
