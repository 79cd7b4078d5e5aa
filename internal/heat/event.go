package heat

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
)

var ErrInvalidPoint = errors.New("invalid point")

// PointEvent is the wire form of a point on the ingest topic.
type PointEvent struct {
	Version int       `json:"version,omitempty"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	Weight  float64   `json:"weight,omitempty"`
	TS      time.Time `json:"ts,omitzero"`
	Source  string    `json:"source,omitempty"`
}

func (e PointEvent) Validate() error {
	if e.Version != 0 && e.Version != 1 {
		return fmt.Errorf("%w: version must be 1", ErrInvalidPoint)
	}
	return ValidatePoint(e.Point())
}

func (e PointEvent) Point() model.HeatPoint {
	return model.HeatPoint{Lat: e.Lat, Lon: e.Lon, Weight: e.Weight, TS: e.TS}
}

// ValidatePoint accepts finite in-range coordinates and a non-negative
// weight. A zero weight counts as 1 when ingested.
func ValidatePoint(p model.HeatPoint) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: non-finite coordinate", ErrInvalidPoint)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: lat %g out of range", ErrInvalidPoint, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: lon %g out of range", ErrInvalidPoint, p.Lon)
	}
	if math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) || p.Weight < 0 {
		return fmt.Errorf("%w: weight must be a finite value >= 0", ErrInvalidPoint)
	}
	return nil
}
