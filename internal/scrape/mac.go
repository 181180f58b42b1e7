package scrape

import (
	"fmt"
	"strings"
)

// FormatError reports a MAC address string that cannot be normalized.
// Malformed MACs are never coerced to a default: a silently-wrong MAC
// corrupts the key used to cross-reference clients across sources.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed mac address %q", e.Input)
}

// Vendor block prefix lengths in colon-hex characters. MA-S (36-bit) is the
// longest and must be tried first: a shorter block prefix is always a
// leading substring of a longer one and would shadow the more specific match.
var vendorPrefixLengths = []int{13, 10, 8}

// NormalizeMAC canonicalizes a MAC address to uppercase colon-hex
// (AA:BB:CC:DD:EE:FF). It accepts dotted-quad (0000.5e00.0101), colon- or
// dash-separated hex in any case, and bare 12-digit hex. Anything that does
// not strip down to exactly 12 hex digits is a *FormatError.
func NormalizeMAC(raw string) (string, error) {
	stripped := strings.NewReplacer(":", "", "-", "", ".", "").Replace(raw)
	if len(stripped) != 12 || !isHex(stripped) {
		return "", &FormatError{Input: raw}
	}

	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(stripped[i : i+2])
	}
	return strings.ToUpper(b.String()), nil
}

// VendorPrefixes returns the vendor-block prefixes of mac ordered
// longest-first (MA-S, MA-M, MA-L). The mac should already be normalized;
// prefixes longer than the input are skipped.
func VendorPrefixes(mac string) []string {
	mac = strings.ToUpper(mac)
	prefixes := make([]string, 0, len(vendorPrefixLengths))
	for _, n := range vendorPrefixLengths {
		if len(mac) >= n {
			prefixes = append(prefixes, mac[:n])
		}
	}
	return prefixes
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
