package geohash

import (
	"fmt"
	"math"
)

type tileOptions struct {
	maxCells int
}

type TileOption func(*tileOptions)

// WithMaxCells makes Contained fail with ErrTooManyCells instead of
// returning more than n cells. n <= 0 disables the guard.
func WithMaxCells(n int) TileOption {
	return func(o *tileOptions) { o.maxCells = n }
}

// Contained lists every cell of the given precision covering the box
// w,n,e,s, walking rows west to east from the north-west corner down to the
// south-east corner. precision < 1 selects 1.
//
// The walk assumes the cell grid is rectangular: every row is stepped east
// as many times as the first row needed to reach the north-east corner.
func Contained(w, n, e, s float64, precision int, opts ...TileOption) ([]string, error) {
	var o tileOptions
	for _, f := range opts {
		f(&o)
	}
	if precision < 1 {
		precision = 1
	}

	if math.IsNaN(n) || n > 89 {
		n = 89
	}
	if e > 180 {
		e = 180
	}
	if s < -89 {
		s = -89
	}
	if w < -180 {
		w = -180
	}

	nw, err := Encode(n, w, precision)
	if err != nil {
		return nil, fmt.Errorf("north-west corner: %w", err)
	}
	ne, err := Encode(n, e, precision)
	if err != nil {
		return nil, fmt.Errorf("north-east corner: %w", err)
	}
	se, err := Encode(s, e, precision)
	if err != nil {
		return nil, fmt.Errorf("south-east corner: %w", err)
	}

	cells := []string{nw}
	cur, rowStart := nw, nw
	col, maxCol := 0, -1
	for cur != se {
		if (maxCol < 0 && cur == ne) || col == maxCol {
			if maxCol < 0 {
				maxCol = col
			}
			if rowStart, err = Adjacent(rowStart, South); err != nil {
				return nil, err
			}
			cur, col = rowStart, 0
		} else {
			if cur, err = Adjacent(cur, East); err != nil {
				return nil, err
			}
			col++
		}

		cells = append(cells, cur)
		if o.maxCells > 0 && len(cells) > o.maxCells {
			return nil, fmt.Errorf("%w: more than %d cells at precision %d", ErrTooManyCells, o.maxCells, precision)
		}
	}
	return cells, nil
}
