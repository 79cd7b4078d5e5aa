package keys

import (
	"math"
	"regexp"
	"strings"
	"testing"
	"unicode"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
)

var bb = model.BBox{W: 11.0, S: 55.0, E: 12.0, N: 56.0}

func TestDeterminism_SameInputsSameKey(t *testing.T) {
	k1 := GridKey("grid", 5, bb)
	k2 := GridKey("grid", 5, bb)
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
	if k1 != GridKey("grid", 5, bb) || !strings.HasPrefix(k1, "grid:v1:5:11,55,12,56:h=") {
		t.Fatalf("unexpected key layout: %s", k1)
	}
}

func TestExactCoordinates_FineViewportsAreDistinct(t *testing.T) {
	a := model.BBox{W: 0.1000001, S: 52.2000001, E: 0.1000001, N: 52.2000001}
	b := model.BBox{W: 0.1000004, S: 52.2000004, E: 0.1000004, N: 52.2000004}
	if GridKey("grid", 12, a) == GridKey("grid", 12, b) {
		t.Fatalf("viewports 3e-7 apart share a key: %s", GridKey("grid", 12, a))
	}
	if !strings.Contains(GridKey("grid", 12, a), ":0.1000001,52.2000001,0.1000001,52.2000001:") {
		t.Fatalf("coordinates not kept exactly: %s", GridKey("grid", 12, a))
	}

	zero := model.BBox{W: math.Copysign(0, -1), S: 0, E: 1, N: 1}
	if GridKey("grid", 1, zero) != GridKey("grid", 1, model.BBox{W: 0, S: 0, E: 1, N: 1}) {
		t.Fatalf("negative zero leaked into key: %s", GridKey("grid", 1, zero))
	}
}

func TestDifference_PrecisionAndBoxAreDistinct(t *testing.T) {
	if GridKey("grid", 5, bb) == GridKey("grid", 6, bb) {
		t.Fatalf("different precisions must produce different keys")
	}
	other := bb
	other.E = 12.5
	if GridKey("grid", 5, bb) == GridKey("grid", 5, other) {
		t.Fatalf("different boxes must produce different keys")
	}
}

func TestNamespaceSafety_NoPanicAndHashSuffixPresent(t *testing.T) {
	k := GridKey("  heat: Göteborg  雪 ", 7, bb)

	for _, r := range k {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune leaked into key: %q in %s", r, k)
		}
	}
	if !strings.HasPrefix(k, "heat-_G-teborg_-:v1:") {
		t.Fatalf("namespace not sanitised: %s", k)
	}
	if m := regexp.MustCompile(`:h=([0-9a-f]{16})$`).FindStringSubmatch(k); len(m) != 2 {
		t.Fatalf("missing or invalid :h=<hex64> suffix in key: %s", k)
	}
	if !strings.HasPrefix(GridKey("", 1, bb), "grid:") {
		t.Fatalf("empty namespace should default to grid")
	}
}
