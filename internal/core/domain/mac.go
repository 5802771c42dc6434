package domain

import (
	"fmt"
	"strings"
)

// NormalizeMAC canonicalizes a hardware address into the uppercase
// colon-separated sextet form. Colon and dash separators are accepted, as
// is the bare 12-digit form. Anything else fails with ErrInvalidMAC.
func NormalizeMAC(raw string) (string, error) {
	stripped := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(raw))
	if len(stripped) != 12 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMAC, raw)
	}

	stripped = strings.ToUpper(stripped)
	for _, c := range stripped {
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return "", fmt.Errorf("%w: %q", ErrInvalidMAC, raw)
		}
	}

	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(stripped[i : i+2])
	}
	return b.String(), nil
}
