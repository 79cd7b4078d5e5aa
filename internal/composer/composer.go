// Package composer turns geohash cells into JSON or GeoJSON responses.
package composer

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/pkg/geohash"
)

// GridCells resolves the rectangle of every cell. values is optional;
// cells missing from it get 0.
func GridCells(cells model.Cells, values map[string]float64) ([]model.GridCell, error) {
	out := make([]model.GridCell, 0, len(cells))
	for _, c := range cells {
		b, err := geohash.DecodeBounds(c)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", c, err)
		}
		out = append(out, model.GridCell{Cell: c, Bounds: b, Value: values[c]})
	}
	return out, nil
}

type Request struct {
	Precision    int
	Cells        []model.GridCell
	AcceptHeader string
	OutputFormat string
}

type Result struct {
	StatusCode  int
	Body        []byte
	ContentType string
	Format      Format
}

type gridBody struct {
	Precision int              `json:"precision"`
	Count     int              `json:"count"`
	Cells     []model.GridCell `json:"cells"`
}

// Compose renders the cells in the negotiated format.
func Compose(req Request) (Result, error) {
	neg := NegotiateFormat(NegotiationInput{
		AcceptHeader:  req.AcceptHeader,
		OutputFormat:  req.OutputFormat,
		DefaultFormat: FormatJSON,
	})

	var (
		body []byte
		err  error
	)
	switch neg.Format {
	case FormatGeoJSON:
		body, err = FeatureCollection(req.Cells).MarshalJSON()
		if err != nil {
			return Result{}, fmt.Errorf("marshal FeatureCollection: %w", err)
		}
	default:
		cells := req.Cells
		if cells == nil {
			cells = []model.GridCell{}
		}
		body, err = json.Marshal(gridBody{Precision: req.Precision, Count: len(cells), Cells: cells})
		if err != nil {
			return Result{}, fmt.Errorf("marshal cells: %w", err)
		}
	}
	return Result{StatusCode: http.StatusOK, Body: body, ContentType: neg.ContentType, Format: neg.Format}, nil
}

// FeatureCollection draws each cell as a closed rectangle with cell and
// value properties. The collection bbox spans all cells.
func FeatureCollection(cells []model.GridCell) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(cells) == 0 {
		return fc
	}

	var bound orb.Bound
	for i, c := range cells {
		b := orb.Bound{
			Min: orb.Point{c.Bounds.SW.Lon, c.Bounds.SW.Lat},
			Max: orb.Point{c.Bounds.NE.Lon, c.Bounds.NE.Lat},
		}
		if i == 0 {
			bound = b
		} else {
			bound = bound.Union(b)
		}

		f := geojson.NewFeature(b.ToPolygon())
		f.ID = c.Cell
		f.Properties["cell"] = c.Cell
		f.Properties["value"] = c.Value
		fc.Append(f)
	}
	fc.BBox = geojson.NewBBox(bound)
	return fc
}
