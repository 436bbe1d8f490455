package protocol

// MaxUsernameLength is the longest username a client may pick.
const MaxUsernameLength = 10

// ValidUsername reports whether name is an acceptable username: 1 to
// MaxUsernameLength characters, ASCII letters and digits only.
func ValidUsername(name string) bool {
	if len(name) == 0 || len(name) > MaxUsernameLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isASCIIAlnum(name[i]) {
			return false
		}
	}
	return true
}

func isASCIIAlnum(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
