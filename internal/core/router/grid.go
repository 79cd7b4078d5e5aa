package router

import (
	"fmt"
	"net/http"

	"github.com/mohammed-shakir/geohash-grid/internal/cache/tilecache"
	"github.com/mohammed-shakir/geohash-grid/internal/composer"
	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/internal/core/observability"
	mylog "github.com/mohammed-shakir/geohash-grid/internal/logger"
)

// ParseGridRequest reads bbox, precision and format. precision defaults
// to def and may not exceed maxPrec.
func ParseGridRequest(r *http.Request, def, maxPrec int) (model.GridRequest, error) {
	raw, err := required(r, "bbox")
	if err != nil {
		return model.GridRequest{}, err
	}
	bb, err := parseBBOX(raw)
	if err != nil {
		return model.GridRequest{}, err
	}
	p, _, err := intParam(r, "precision", def)
	if err != nil {
		return model.GridRequest{}, err
	}
	if p < 1 || p > maxPrec {
		return model.GridRequest{}, fmt.Errorf("%w: precision must be 1..%d", errBadParam, maxPrec)
	}
	return model.GridRequest{BBox: bb, Precision: p, Format: r.URL.Query().Get("format")}, nil
}

func (a *API) handleGrid(w http.ResponseWriter, r *http.Request) {
	q, err := ParseGridRequest(r, a.cfg.GridPrecision, a.cfg.GridMaxPrec)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx := mylog.WithComponent(r.Context(), "grid")

	compute := func() (model.Cells, error) { return a.mapper.CellsForBBox(q.BBox, q.Precision) }
	var cells model.Cells
	src := tilecache.SourceComputed
	if a.tiles != nil {
		cells, src, err = a.tiles.Cells(ctx, q.BBox, q.Precision, compute)
	} else {
		cells, err = compute()
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	observability.ObserveGridCells(q.Precision, len(cells))

	grid, err := composer.GridCells(cells, nil)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.DebugContext(ctx, "grid resolved", "bbox", q.BBox.String(), "precision", q.Precision, "cells", len(cells), "source", string(src))
	w.Header().Set("X-Cache", string(src))
	a.compose(w, r, q, grid)
}

func (a *API) compose(w http.ResponseWriter, r *http.Request, q model.GridRequest, cells []model.GridCell) {
	res, err := composer.Compose(composer.Request{
		Precision:    q.Precision,
		Cells:        cells,
		AcceptHeader: r.Header.Get("Accept"),
		OutputFormat: q.Format,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body)
}
