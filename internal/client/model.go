// Package client implements the terminal front end of the relay: a scrolling
// transcript of everything the server sends and an input line whose contents
// are sent on Enter.
package client

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ServerMsg carries bytes received from the server. Frames are not line
// aligned: notices have no trailing newline.
type ServerMsg string

// DisconnectedMsg reports that the connection to the server ended.
type DisconnectedMsg struct {
	Err error
}

// Model is the bubbletea model of the chat client.
type Model struct {
	out        io.Writer
	input      textinput.Model
	viewport   viewport.Model
	transcript string

	disconnected bool
	err          error
}

// New creates a Model that writes submitted lines to out.
func New(out io.Writer) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message, /list or /w <user> <text> (Esc to quit)"
	ti.Focus()
	ti.Width = 76

	return Model{
		out:      out,
		input:    ti,
		viewport: viewport.New(80, 20),
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles keys, window resizes and traffic from the server.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.disconnected {
				return m, tea.Quit
			}
			return m.submit()
		}
		if m.disconnected {
			return m, tea.Quit
		}
		// Keys belong to the input line; the viewport's keymap would steal letters.
		m.input, tiCmd = m.input.Update(msg)
		return m, tiCmd

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.input.Width = max(msg.Width-4, 1)
		m.refresh()

	case ServerMsg:
		m.appendTranscript(string(msg))

	case DisconnectedMsg:
		m.disconnected = true
		m.err = msg.Err
		m.input.Blur()
		m.appendTranscript("\n*** " + disconnectReason(msg.Err) + " (press any key to exit)\n")
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// View renders the transcript above the input line.
func (m Model) View() string {
	return m.viewport.View() + "\n" + m.input.View()
}

// Err returns the error that ended the connection, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	m.input.Reset()

	if _, err := io.WriteString(m.out, line+"\n"); err != nil {
		return m.Update(DisconnectedMsg{Err: err})
	}

	// The server does not echo a sender's own chat lines.
	if strings.TrimSpace(line) != "" && !strings.HasPrefix(line, "/") {
		m.appendTranscript(terminate(m.transcript) + "> " + line + "\n")
	}
	return m, nil
}

func (m *Model) appendTranscript(text string) {
	m.transcript += text
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript)
	m.viewport.GotoBottom()
}

// terminate returns the newline needed so the next entry starts on its own line.
func terminate(transcript string) string {
	if transcript == "" || strings.HasSuffix(transcript, "\n") {
		return ""
	}
	return "\n"
}

func disconnectReason(err error) string {
	if err == nil || errors.Is(err, io.EOF) {
		return "Server closed the connection"
	}
	return fmt.Sprintf("Connection lost: %v", err)
}
