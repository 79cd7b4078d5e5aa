// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"time"

	"github.com/mohammed-shakir/geohash-grid/pkg/geohash"
)

// BBox is a viewport in EPSG:4326 degrees.
type BBox struct {
	W, S float64
	E, N float64
}

// String representation matching the bbox query parameter (w,s,e,n)
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.W, b.S, b.E, b.N)
}

type Cells []string

// GridCell is what map widgets draw: a cell id, its rectangle and a value.
type GridCell struct {
	Cell   string         `json:"cell"`
	Bounds geohash.Bounds `json:"bounds"`
	Value  float64        `json:"value"`
}

type GridRequest struct {
	BBox      BBox
	Precision int
	Format    string
}

// HeatPoint is one weighted observation fed to the heat layer.
type HeatPoint struct {
	Lat    float64   `json:"lat"`
	Lon    float64   `json:"lon"`
	Weight float64   `json:"weight,omitempty"`
	TS     time.Time `json:"ts,omitempty"`
}
