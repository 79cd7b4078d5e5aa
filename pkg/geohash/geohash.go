// Package geohash encodes coordinates into base32 geohash cells and back,
// resolves adjacent cells and tiles bounding boxes into same-precision cells.
//
// Every function is pure: the lookup tables are read-only and no call keeps
// state between invocations, so the package is safe for concurrent use.
package geohash

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// MaxPrecision is the longest cell EncodeAuto will try before giving up.
const MaxPrecision = 12

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is the rectangle named by a cell.
type Bounds struct {
	SW Point `json:"sw"`
	NE Point `json:"ne"`
}

func (b Bounds) Center() Point {
	return Point{
		Lat: (b.SW.Lat + b.NE.Lat) / 2,
		Lon: (b.SW.Lon + b.NE.Lon) / 2,
	}
}

// Contains is inclusive on every edge.
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.SW.Lat && p.Lat <= b.NE.Lat &&
		p.Lon >= b.SW.Lon && p.Lon <= b.NE.Lon
}

// Encode returns the cell of the given precision (character count) that
// holds lat/lon. A coordinate equal to a bisection midpoint falls into the
// lower half.
func Encode(lat, lon float64, precision int) (string, error) {
	if !finite(lat) || !finite(lon) {
		return "", fmt.Errorf("%w: coordinate %v,%v is not finite", ErrInvalidGeohash, lat, lon)
	}
	if precision < 1 {
		return "", fmt.Errorf("%w: precision %d must be >= 1", ErrInvalidGeohash, precision)
	}

	var sb strings.Builder
	sb.Grow(precision)
	bs := newBisector()
	for sb.Len() < precision {
		idx := 0
		for range 5 {
			upper := bs.above(lat, lon)
			idx <<= 1
			if upper {
				idx |= 1
			}
			bs.push(upper)
		}
		sb.WriteByte(symbolFor(idx))
	}
	return sb.String(), nil
}

// EncodeAuto picks the shortest precision (1..MaxPrecision) whose decoded
// point equals lat/lon exactly, falling back to MaxPrecision. Because Decode
// rounds, many inputs never match and come back at MaxPrecision.
func EncodeAuto(lat, lon float64) (string, error) {
	for p := 1; p <= MaxPrecision; p++ {
		cell, err := Encode(lat, lon, p)
		if err != nil {
			return "", err
		}
		pt, err := Decode(cell)
		if err != nil {
			return "", err
		}
		if pt.Lat == lat && pt.Lon == lon {
			return cell, nil
		}
	}
	return Encode(lat, lon, MaxPrecision)
}

// DecodeBounds returns the rectangle of cell. Upper-case input is accepted.
func DecodeBounds(cell string) (Bounds, error) {
	if cell == "" {
		return Bounds{}, fmt.Errorf("%w: empty cell", ErrInvalidGeohash)
	}
	cell = strings.ToLower(cell)

	bs := newBisector()
	for i := 0; i < len(cell); i++ {
		v, err := bitsFor(cell[i])
		if err != nil {
			return Bounds{}, err
		}
		for n := 4; n >= 0; n-- {
			bs.push((v>>n)&1 == 1)
		}
	}
	return bs.bounds(), nil
}

// Decode returns the centre of cell, each axis rounded to just enough
// decimals to tell the cell apart from its neighbours.
func Decode(cell string) (Point, error) {
	b, err := DecodeBounds(cell)
	if err != nil {
		return Point{}, err
	}
	c := b.Center()
	return Point{
		Lat: roundTo(c.Lat, places(b.NE.Lat-b.SW.Lat)),
		Lon: roundTo(c.Lon, places(b.NE.Lon-b.SW.Lon)),
	}, nil
}

func places(width float64) int {
	d := int(math.Floor(2 - math.Log10(width)))
	if d < 0 {
		return 0
	}
	return d
}

// roundTo rounds the exact binary value of v half away from zero.
func roundTo(v float64, places int) float64 {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	r := new(big.Rat).SetFloat64(v)
	r.Mul(r, new(big.Rat).SetInt(scale))

	// floor((2|num| + den) / 2den)
	num := new(big.Int).Abs(r.Num())
	den := r.Denom()
	q := new(big.Int).Lsh(num, 1)
	q.Add(q, den)
	q.Quo(q, new(big.Int).Lsh(den, 1))
	if r.Sign() < 0 {
		q.Neg(q)
	}

	f, _ := new(big.Rat).SetFrac(q, scale).Float64()
	return f
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
