package pathutil

import "strings"

// globMeta are the doublestar metacharacters that must be escaped when a
// literal string is spliced into a glob pattern.
const globMeta = `*?[]{}\`

// EscapeGlobLiteral backslash-escapes doublestar metacharacters in s so it
// can be embedded verbatim inside a larger glob pattern without its own
// characters being reinterpreted.
func EscapeGlobLiteral(s string) string {
	if !strings.ContainsAny(s, globMeta) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if strings.ContainsRune(globMeta, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsPathLike checks if a string looks like a filesystem path.
// Used to heuristically detect path arguments.
func IsPathLike(s string) bool {
	if s == "" {
		return false
	}

	// Starts with path indicators
	if strings.HasPrefix(s, "/") ||
		strings.HasPrefix(s, "./") ||
		strings.HasPrefix(s, "../") ||
		strings.HasPrefix(s, "~/") ||
		s == "~" ||
		s == "." ||
		s == ".." {
		return true
	}

	// Contains path separator (but not just flags like --foo/bar which would be unusual)
	if strings.Contains(s, "/") && !strings.HasPrefix(s, "-") {
		return true
	}

	return false
}
