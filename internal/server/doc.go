// Package server implements the relay core: the session registry, the message
// router and the hub that multiplexes every client connection through a single
// event loop.
//
// The implementation is organized into specialized files for configuration,
// transports (TCP and WebSocket), the registry, routing and the HTTP gateway.
package server
