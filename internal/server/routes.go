// Package server wires gateway HTTP handlers into a gorilla/mux router.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures and returns a router with all gateway routes:
// health check, WebSocket endpoint and the user list.
func SetupRoutes(gateway *Gateway) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws", gateway.WebSocketHandler).Methods(http.MethodGet)
	r.HandleFunc("/users", gateway.UsersHandler).Methods(http.MethodGet)
	return r
}
