// Package server constructs and starts the gateway HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// CreateServer creates and configures an HTTP server with the specified address and handler.
// It sets reasonable timeout values for production use. Hijacked WebSocket
// connections are not subject to these timeouts.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartServer serves HTTP on ln until the server is shut down.
// It returns http.ErrServerClosed after a graceful shutdown.
func StartServer(server *http.Server, ln net.Listener, log *logrus.Entry) error {
	log.Infof("WebSocket gateway listening on %s", ln.Addr())
	return server.Serve(ln)
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting active connections.
// It waits for active connections to close or until the timeout is reached.
func ShutdownServer(server *http.Server, timeout time.Duration, log *logrus.Entry) error {
	log.Info("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
		return err
	}

	log.Info("HTTP server shutdown completed")
	return nil
}
