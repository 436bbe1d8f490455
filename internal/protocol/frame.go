package protocol

import (
	"fmt"
	"unicode/utf8"
)

// ServerLabel is the sender label of server-originated broadcasts and notices.
const ServerLabel = "Server"

// Texts the server sends on its own behalf.
const (
	PromptUsername = "Enter your username: "
	RejectUsername = "Usernames can only contain letters and numbers. \n" + PromptUsername
	ShuttingDown   = "Server shutting down..."
)

// Joined is the broadcast text announcing a new user.
func Joined(username string) string {
	return fmt.Sprintf("%s has joined.", username)
}

// Disconnected is the broadcast text announcing a departed user.
func Disconnected(username string) string {
	return fmt.Sprintf("%s has disconnected.", username)
}

// Relay frames a broadcast line: "<sender>: <text>\n".
func Relay(sender, text string, limit int) string {
	return bound(sender+": ", text, "\n", limit)
}

// Whisper frames a private line: "<sender> to you: <text>\n".
func Whisper(sender, text string, limit int) string {
	return bound(sender+" to you: ", text, "\n", limit)
}

// Notice frames a server notice for a single recipient. Notices carry no
// trailing newline.
func Notice(text string, limit int) string {
	return bound(ServerLabel+" to you: ", text, "", limit)
}

// bound joins prefix, body and suffix, shortening body so the result fits in
// limit bytes. A non-positive limit disables the bound.
func bound(prefix, body, suffix string, limit int) string {
	if limit <= 0 || len(prefix)+len(body)+len(suffix) <= limit {
		return prefix + body + suffix
	}
	room := limit - len(prefix) - len(suffix)
	if room <= 0 {
		return TruncateUTF8(prefix+suffix, limit)
	}
	return prefix + TruncateUTF8(body, room) + suffix
}

// TruncateUTF8 cuts s to at most n bytes without splitting a multi-byte rune.
func TruncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
