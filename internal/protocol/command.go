package protocol

import "strings"

// CommandPrefix marks a line as a command rather than chat.
const CommandPrefix = "/"

// Command words understood by the relay.
const (
	CommandList    = "/list"
	CommandWhisper = "/w"
)

// ParseCommand splits line into exactly expectedParts slots. The first
// expectedParts-1 slots take one space-separated token each and the last slot
// takes whatever remains of the line, spaces included.
//
// Every token placed in the leading slots must be followed by a separator;
// running out of input before that makes the parse fail. An empty or
// whitespace-only remainder is returned as "".
func ParseCommand(line string, expectedParts int) ([]string, bool) {
	if expectedParts < 1 {
		return nil, false
	}

	parts := make([]string, 0, expectedParts)
	rest := line
	for len(parts) < expectedParts-1 {
		rest = strings.TrimLeft(rest, " ")
		end := strings.IndexByte(rest, ' ')
		if rest == "" || end < 0 {
			return nil, false
		}
		parts = append(parts, rest[:end])
		rest = rest[end:]
	}

	rest = strings.TrimLeft(rest, " ")
	if strings.TrimSpace(rest) == "" {
		rest = ""
	}
	return append(parts, rest), true
}

// CommandWord returns the leading word of a command line, up to the first
// space.
func CommandWord(line string) string {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i]
	}
	return line
}

// IsCommand reports whether line should be dispatched as a command.
func IsCommand(line string) bool {
	return strings.HasPrefix(line, CommandPrefix)
}
