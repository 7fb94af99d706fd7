package mtlx

import (
	"strconv"
	"strings"
)

// Sanitize maps an arbitrary name onto the identifier alphabet [A-Za-z0-9_].
// Names starting with a digit get an "n" prefix; empty names become "node".
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" {
		return "node"
	}
	if s[0] >= '0' && s[0] <= '9' {
		return "n" + s
	}
	return s
}

func uniqueName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		name := base + "_" + strconv.Itoa(i)
		if !taken(name) {
			return name
		}
	}
}
