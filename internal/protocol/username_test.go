package protocol

import (
	"strings"
	"testing"
)

// TestValidUsername checks the 1-10 ASCII alphanumeric rule, including the
// boundary lengths and characters that only look alphanumeric.
func TestValidUsername(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"bob1", true},
		{"Bob", true},
		{"a", true},
		{"0123456789", true},
		{strings.Repeat("x", 11), false},
		{"", false},
		{"bob!", false},
		{"Bob!", false},
		{"bob smith", false},
		{" bob", false},
		{"bob\n", false},
		{"bob_1", false},
		{"héllo", false},
		{"١٢٣", false},
	}

	for _, tt := range tests {
		if got := ValidUsername(tt.name); got != tt.want {
			t.Errorf("ValidUsername(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
