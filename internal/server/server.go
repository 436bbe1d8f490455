// Package server wires the hub, the TCP listener and the optional WebSocket
// gateway into one runnable relay.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server is a complete relay process: one Hub, its TCP listener and, when
// configured, the HTTP/WebSocket gateway.
type Server struct {
	cfg Config
	log *logrus.Entry
	hub *Hub
}

// New creates a Server for cfg.
func New(cfg Config, log *logrus.Entry) *Server {
	cfg = cfg.Sanitize()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		cfg: cfg,
		log: log,
		hub: NewHub(cfg, log),
	}
}

// Hub returns the server's hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run binds the listeners and serves until ctx is cancelled. Failing to bind
// is returned straight away; once serving, Run returns after a graceful
// shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp4", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen tcp4 %s: %w", s.cfg.Address, err)
	}

	var httpServer *http.Server
	if s.cfg.WebSocket.Address != "" {
		httpLn, err := net.Listen("tcp", s.cfg.WebSocket.Address)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen websocket gateway %s: %w", s.cfg.WebSocket.Address, err)
		}
		gateway := NewGateway(s.hub, s.cfg, s.log)
		httpServer = CreateServer(s.cfg.WebSocket.Address, SetupRoutes(gateway))
		go func() {
			if err := StartServer(httpServer, httpLn, s.log); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Errorf("WebSocket gateway stopped: %v", err)
			}
		}()
	}

	err = s.hub.Serve(ctx, ln)

	if httpServer != nil {
		_ = ShutdownServer(httpServer, 5*time.Second, s.log)
	}
	return err
}
