package pathutil

import "testing"

func TestEscapeGlobLiteral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a*b", `a\*b`},
		{"[bracket]", `\[bracket\]`},
		{"a{b,c}", `a\{b,c\}`},
		{"back\\slash", `back\\slash`},
		{"a?b", `a\?b`},
	}
	for _, tt := range tests {
		if got := EscapeGlobLiteral(tt.in); got != tt.want {
			t.Errorf("EscapeGlobLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsPathLike(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"/abs/path", true},
		{"./rel", true},
		{"../up", true},
		{"~/home", true},
		{"plain", false},
		{"dir/file", true},
		{"-flag/looksalike", false},
	}
	for _, tt := range tests {
		if got := IsPathLike(tt.in); got != tt.want {
			t.Errorf("IsPathLike(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
