// Package heat accumulates weighted point observations per geohash cell
// and serves them rolled up onto a viewport grid.
package heat

type Interface interface {
	Add(cell string, weight float64)
	Score(cell string) float64
	Reset(cells ...string)
	Snapshot() map[string]float64
}

type Sizer interface{ Size() int }
