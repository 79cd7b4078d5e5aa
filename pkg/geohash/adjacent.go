package geohash

import (
	"fmt"
	"strings"
)

type Direction string

const (
	North Direction = "n"
	South Direction = "s"
	East  Direction = "e"
	West  Direction = "w"
)

// Neighbours holds the eight cells around a cell, same precision.
type Neighbours struct {
	N  string `json:"n"`
	NE string `json:"ne"`
	E  string `json:"e"`
	SE string `json:"se"`
	S  string `json:"s"`
	SW string `json:"sw"`
	W  string `json:"w"`
	NW string `json:"nw"`
}

// Indexed by [direction][len(cell)%2]. Row order matches dirIndex.
var neighbourTable = [4][2]string{
	{"p0r21436x8zb9dcf5h7kjnmqesgutwvy", "bc01fg45238967deuvhjyznpkmstqrwx"}, // n
	{"14365h7k9dcfesgujnmqp0r2twvyx8zb", "238967debc01fg45kmstqrwxuvhjyznp"}, // s
	{"bc01fg45238967deuvhjyznpkmstqrwx", "p0r21436x8zb9dcf5h7kjnmqesgutwvy"}, // e
	{"238967debc01fg45kmstqrwxuvhjyznp", "14365h7k9dcfesgujnmqp0r2twvyx8zb"}, // w
}

// last characters that sit on the parent's edge in that direction
var borderTable = [4][2]string{
	{"prxz", "bcfguvyz"},
	{"028b", "0145hjnp"},
	{"bcfguvyz", "prxz"},
	{"0145hjnp", "028b"},
}

// ParseDirection accepts n, s, e or w in any case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := d.index(); !ok {
		return "", fmt.Errorf("%w: %q (want n, s, e or w)", ErrInvalidDirection, s)
	}
	return d, nil
}

func (d Direction) index() (int, bool) {
	switch strings.ToLower(string(d)) {
	case "n":
		return 0, true
	case "s":
		return 1, true
	case "e":
		return 2, true
	case "w":
		return 3, true
	}
	return 0, false
}

// Adjacent returns the cell of equal precision next to cell in direction dir.
// Longitude wraps at the antimeridian. Stepping past a pole wraps to the
// opposite pole row, which is not a geographic neighbour.
func Adjacent(cell string, dir Direction) (string, error) {
	if cell == "" {
		return "", fmt.Errorf("%w: empty cell", ErrInvalidGeohash)
	}
	d, ok := dir.index()
	if !ok {
		return "", fmt.Errorf("%w: %q (want n, s, e or w)", ErrInvalidDirection, string(dir))
	}
	cell = strings.ToLower(cell)
	for i := 0; i < len(cell); i++ {
		if _, err := bitsFor(cell[i]); err != nil {
			return "", err
		}
	}
	return adjacent(cell, d)
}

func adjacent(cell string, d int) (string, error) {
	last := cell[len(cell)-1]
	parent := cell[:len(cell)-1]
	parity := len(cell) % 2

	if strings.IndexByte(borderTable[d][parity], last) >= 0 && parent != "" {
		p, err := adjacent(parent, d)
		if err != nil {
			return "", err
		}
		parent = p
	}

	i := strings.IndexByte(neighbourTable[d][parity], last)
	if i < 0 {
		return "", fmt.Errorf("%w: character %q is not in the base32 alphabet", ErrInvalidGeohash, last)
	}
	return parent + string(symbolFor(i)), nil
}

// AllNeighbours resolves the eight surrounding cells. Diagonals are two
// steps: north or south first, then east or west.
func AllNeighbours(cell string) (Neighbours, error) {
	var out Neighbours
	var err error

	if out.N, err = Adjacent(cell, North); err != nil {
		return Neighbours{}, err
	}
	if out.S, err = Adjacent(cell, South); err != nil {
		return Neighbours{}, err
	}
	if out.E, err = Adjacent(cell, East); err != nil {
		return Neighbours{}, err
	}
	if out.W, err = Adjacent(cell, West); err != nil {
		return Neighbours{}, err
	}
	if out.NE, err = Adjacent(out.N, East); err != nil {
		return Neighbours{}, err
	}
	if out.SE, err = Adjacent(out.S, East); err != nil {
		return Neighbours{}, err
	}
	if out.SW, err = Adjacent(out.S, West); err != nil {
		return Neighbours{}, err
	}
	if out.NW, err = Adjacent(out.N, West); err != nil {
		return Neighbours{}, err
	}
	return out, nil
}
