// Package mapper converts viewports into geohash cells.
package mapper

import (
	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
)

type Interface interface {
	CellsForBBox(bb model.BBox, precision int) (model.Cells, error)
}

// Hierarchy walks between precisions of the same cell.
type Hierarchy interface {
	ToParent(cell string, precision int) (string, error)
	ToChildren(cell string, precision int) (model.Cells, error)
}
