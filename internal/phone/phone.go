package phone

import "strings"

// Normalize strips every non-digit and prefixes the North American country
// code when exactly ten digits remain. It returns "" when no digits are left.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 1)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 {
		return "1" + digits
	}
	return digits
}
