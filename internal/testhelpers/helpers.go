// Package testhelpers provides common utilities and helper functions for testing the relay.
//
// It offers a line-protocol TCP client with deadline-bounded expectations, a
// WebSocket dialer and HTTP assertions, so package tests do not repeat socket
// plumbing.
package testhelpers

import (
	"bytes"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds every expectation made through the helpers.
const DefaultTimeout = 3 * time.Second

// TextClient is a raw TCP client of the line protocol. It keeps everything
// received that has not been matched yet.
type TextClient struct {
	t       *testing.T
	conn    net.Conn
	pending bytes.Buffer
}

// DialText connects a TextClient to addr and fails the test on error.
func DialText(t *testing.T, addr string) *TextClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", addr, err)
	}
	c := &TextClient{t: t, conn: conn}
	t.Cleanup(func() { _ = conn.Close() })
	return c
}

// Send writes line followed by a newline.
func (c *TextClient) Send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.t.Fatalf("Failed to send %q: %v", line, err)
	}
}

// SendRaw writes data as is.
func (c *TextClient) SendRaw(data string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(data)); err != nil {
		c.t.Fatalf("Failed to send %q: %v", data, err)
	}
}

// Expect waits until want has been received and consumes everything up to and
// including it.
func (c *TextClient) Expect(want string) {
	c.t.Helper()
	deadline := time.Now().Add(DefaultTimeout)
	buf := make([]byte, 4096)
	for {
		if i := strings.Index(c.pending.String(), want); i >= 0 {
			c.pending.Next(i + len(want))
			return
		}
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			c.t.Fatalf("Failed to set read deadline: %v", err)
		}
		n, err := c.conn.Read(buf)
		c.pending.Write(buf[:n])
		if err != nil && !strings.Contains(c.pending.String(), want) {
			c.t.Fatalf("Expected %q, got %q (read error: %v)", want, c.pending.String(), err)
		}
	}
}

// ExpectSilence fails the test if anything arrives within d.
func (c *TextClient) ExpectSilence(d time.Duration) {
	c.t.Helper()
	if c.pending.Len() > 0 {
		c.t.Fatalf("Expected silence, have unread %q", c.pending.String())
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		c.t.Fatalf("Failed to set read deadline: %v", err)
	}
	buf := make([]byte, 4096)
	n, err := c.conn.Read(buf)
	if n > 0 {
		c.t.Fatalf("Expected silence, received %q", buf[:n])
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		c.t.Fatalf("Expected silence, connection ended: %v", err)
	}
}

// ExpectClosed waits for the server to close the connection, failing the test
// if data other than allowed arrives first.
func (c *TextClient) ExpectClosed() {
	c.t.Helper()
	if err := c.conn.SetReadDeadline(time.Now().Add(DefaultTimeout)); err != nil {
		c.t.Fatalf("Failed to set read deadline: %v", err)
	}
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		c.pending.Write(buf[:n])
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			c.t.Fatalf("Expected connection to close, still open (received %q)", c.pending.String())
		}
		return
	}
}

// Unread returns what has been received but not matched yet.
func (c *TextClient) Unread() string {
	return c.pending.String()
}

// Close closes the client connection.
func (c *TextClient) Close() {
	_ = c.conn.Close()
}

// ConnectWebSocket creates a WebSocket connection to the specified URL.
// It returns the connection or an error if connection fails.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	// Set a proper origin header for testing
	headers := http.Header{}
	headers.Set("Origin", "http://localhost:8080")

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// ReadWebSocketText reads one text frame with a deadline.
func ReadWebSocketText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(DefaultTimeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	return string(data)
}

// AssertStatusCode checks if the HTTP response has the expected status code.
// It fails the test with a descriptive error message if the status codes don't match.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
// It fails the test with a descriptive error message if the content types don't match.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}
