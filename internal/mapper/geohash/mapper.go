package ghmapper

import (
	"errors"
	"fmt"
	"math"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/pkg/geohash"
)

var (
	ErrInvalidPrecision = errors.New("invalid precision")
	ErrInvalidBBox      = errors.New("invalid bbox")
)

type Mapper struct {
	maxCells int
}

// New returns a mapper whose tiling fails once a viewport needs more
// than maxCells cells. maxCells <= 0 disables the guard.
func New(maxCells int) *Mapper { return &Mapper{maxCells: maxCells} }

// CellsForBBox tiles bb in walk order (rows north to south, west to east)
// without duplicates. A box with W > E crosses the antimeridian.
func (m *Mapper) CellsForBBox(bb model.BBox, precision int) (model.Cells, error) {
	if err := validatePrecision(precision); err != nil {
		return nil, err
	}
	if err := validateBBox(bb); err != nil {
		return nil, err
	}

	var opts []geohash.TileOption
	if m.maxCells > 0 {
		opts = append(opts, geohash.WithMaxCells(m.maxCells))
	}
	raw, err := geohash.Contained(bb.W, bb.N, bb.E, bb.S, precision, opts...)
	if err != nil {
		return nil, fmt.Errorf("tile %s at %d: %w", bb, precision, err)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make(model.Cells, 0, len(raw))
	for _, c := range raw {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func validatePrecision(p int) error {
	if p < 1 || p > geohash.MaxPrecision {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidPrecision, p, geohash.MaxPrecision)
	}
	return nil
}

func validateBBox(bb model.BBox) error {
	for _, v := range []float64{bb.W, bb.S, bb.E, bb.N} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate", ErrInvalidBBox)
		}
	}
	if bb.W < -180 || bb.W > 180 || bb.E < -180 || bb.E > 180 {
		return fmt.Errorf("%w: longitude must be in [-180,180]", ErrInvalidBBox)
	}
	if bb.S < -90 || bb.S > 90 || bb.N < -90 || bb.N > 90 {
		return fmt.Errorf("%w: latitude must be in [-90,90]", ErrInvalidBBox)
	}
	if bb.S > bb.N {
		return fmt.Errorf("%w: south %g is above north %g", ErrInvalidBBox, bb.S, bb.N)
	}
	return nil
}
