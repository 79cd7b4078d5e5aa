package keys

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
)

const version = "v1"

// GridKey names the cached tiling of bb at precision. Coordinates keep
// their exact float value (shortest round-trip text, -0 folded to 0) since
// precision 12 cells are narrower than any fixed decimal rounding. The
// xxhash suffix is taken over the coordinate text.
func GridKey(namespace string, precision int, bb model.BBox) string {
	ns := sanitizeNamespace(strings.TrimSpace(namespace))
	if ns == "" {
		ns = "grid"
	}
	box := normalizeBBox(bb)
	sum := xxhash.Sum64String(box)
	return fmt.Sprintf("%s:%s:%d:%s:h=%016x", ns, version, precision, box, sum)
}

func normalizeBBox(bb model.BBox) string {
	parts := [4]string{coord(bb.W), coord(bb.S), coord(bb.E), coord(bb.N)}
	return strings.Join(parts[:], ",")
}

func coord(v float64) string {
	if v == 0 {
		v = 0 // folds -0
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func sanitizeNamespace(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case unicode.IsSpace(r):
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			// ':' separates key segments, so it is replaced too
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
