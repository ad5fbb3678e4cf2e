// Package privacy provides deterministic, non-reversible renderings of
// sensitive field values. Every helper is a pure transform; callers decide
// which transform applies to which field.
package privacy

import (
	"encoding/hex"
	"fmt"
	"math"
	"net"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Masker tokenizes identifiers with a keyed digest so that equal inputs yield
// equal tokens within one deployment but nothing is recoverable without the
// key. Construct one per process from configuration; there is no package
// default.
type Masker struct {
	key []byte
}

func NewMasker(key []byte) *Masker {
	return &Masker{key: key}
}

// Token returns a stable opaque handle for an identifier, e.g. "tok_9f2c41ab77d0e611".
func (m *Masker) Token(value string) string {
	h, err := blake2b.New256(m.key)
	if err != nil {
		// Only reachable with a key longer than 64 bytes; fall back to unkeyed.
		h, _ = blake2b.New256(nil)
	}
	h.Write([]byte(value))
	return "tok_" + hex.EncodeToString(h.Sum(nil)[:8])
}

// LastN keeps the trailing n characters visible and replaces the rest with
// bullets. Values shorter than n are fully bulleted.
func LastN(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		return strings.Repeat("•", len(runes))
	}
	hidden := len(runes) - n
	return strings.Repeat("•", hidden) + string(runes[hidden:])
}

// Initials reduces a personal name to dotted initials, "Jane van Dyk" -> "J. v. D.".
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, string([]rune(f)[0])+".")
	}
	return strings.Join(parts, " ")
}

// GivenNameOnly keeps the first name and reduces the rest to an initial,
// "Jane van Dyk" -> "Jane D.".
func GivenNameOnly(name string) string {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	default:
		last := fields[len(fields)-1]
		return fields[0] + " " + string([]rune(last)[0]) + "."
	}
}

// LastSegment returns the final comma-separated component of a value, e.g.
// the suburb of a street address. Falls back to the whole value when no
// separator is present.
func LastSegment(value string) string {
	idx := strings.LastIndex(value, ",")
	if idx < 0 {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(value[idx+1:])
}

// Truncate keeps at most n leading characters, appending an ellipsis when
// anything was cut.
func Truncate(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		return value
	}
	return string(runes[:n]) + "…"
}

// RoundAmount coarsens a monetary amount to the nearest multiple of step.
func RoundAmount(amount, step float64) float64 {
	if step <= 0 {
		return amount
	}
	return math.Round(amount/step) * step
}

// AnonymizeIP strips the host-identifying portion of an address for log
// lines: IPv4 keeps the /24, IPv6 keeps the /48. Returns "invalid" for
// unparseable input and "unknown" for empty input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1], parsed[2], parsed[3], parsed[4], parsed[5])
}
