// Package server exposes gateway HTTP handlers: WebSocket upgrades, health
// checks and a read-only user list.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Gateway admits WebSocket clients into a Hub and answers HTTP queries about it.
type Gateway struct {
	hub      *Hub
	cfg      Config
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

// NewGateway creates a Gateway in front of hub.
func NewGateway(hub *Hub, cfg Config, log *logrus.Entry) *Gateway {
	cfg = cfg.Sanitize()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	origins := newOriginPolicy(cfg.WebSocket.AllowedOrigins, log)
	return &Gateway{
		hub: hub,
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
	}
}

// UsersResponse is the body served by UsersHandler.
type UsersResponse struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// WebSocketHandler upgrades the request and hands the connection to the hub,
// which owns it from then on. The session behaves exactly like a TCP session.
func (g *Gateway) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	client := newWSConn(conn, r.RemoteAddr, g.cfg.MaxMessageSize, g.cfg.WriteTimeout)
	if err := g.hub.Admit(r.Context(), client); err != nil {
		g.log.WithField("session", r.RemoteAddr).Warnf("WebSocket client not admitted: %v", err)
		_ = client.Close()
	}
}

// UsersHandler responds with the usernames currently connected.
func (g *Gateway) UsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := g.hub.Usernames(r.Context())
	if err != nil {
		http.Error(w, "Chat hub unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(UsersResponse{Count: len(users), Users: users}); err != nil {
		g.log.Errorf("Error writing users response: %v", err)
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Chat relay is running!")
}
