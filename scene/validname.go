package scene

import "strings"

// ValidPrimName converts an arbitrary object name to a valid prim
// identifier: alphanumerics and underscores only, never starting with a
// digit, never empty.
func ValidPrimName(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 1)
	for _, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(out) == 0 {
		return "prim"
	}
	if out[0] >= '0' && out[0] <= '9' {
		return "_" + out
	}
	return out
}
