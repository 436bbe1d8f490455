// Package protocol holds the pure pieces of the relay's plain-text line
// protocol: username validation, command tokenizing, bounded line reading and
// the framing of outbound messages. Nothing here touches sockets or shared
// state.
package protocol
