package router

import (
	"fmt"
	"net/http"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/internal/core/observability"
	"github.com/mohammed-shakir/geohash-grid/internal/mapper"
	"github.com/mohammed-shakir/geohash-grid/pkg/geohash"
)

type cellResp struct {
	Cell string `json:"cell"`
}

func (a *API) codecError(w http.ResponseWriter, r *http.Request, op string, err error) {
	observability.IncCodecError(op)
	a.writeError(w, r, err)
}

// precision is optional; without it the shortest exact cell is chosen
func (a *API) handleEncode(w http.ResponseWriter, r *http.Request) {
	lat, err := floatParam(r, "lat")
	if err != nil {
		a.codecError(w, r, "encode", err)
		return
	}
	lon, err := floatParam(r, "lon")
	if err != nil {
		a.codecError(w, r, "encode", err)
		return
	}
	p, given, err := intParam(r, "precision", 0)
	if err != nil {
		a.codecError(w, r, "encode", err)
		return
	}
	if given && p > geohash.MaxPrecision {
		a.codecError(w, r, "encode", fmt.Errorf("%w: precision must be 1..%d", errBadParam, geohash.MaxPrecision))
		return
	}

	var cell string
	if given {
		cell, err = geohash.Encode(lat, lon, p)
	} else {
		cell, err = geohash.EncodeAuto(lat, lon)
	}
	if err != nil {
		a.codecError(w, r, "encode", err)
		return
	}
	writeJSON(w, http.StatusOK, cellResp{Cell: cell})
}

func (a *API) handleDecode(w http.ResponseWriter, r *http.Request) {
	cell, err := required(r, "cell")
	if err != nil {
		a.codecError(w, r, "decode", err)
		return
	}
	pt, err := geohash.Decode(cell)
	if err != nil {
		a.codecError(w, r, "decode", err)
		return
	}
	writeJSON(w, http.StatusOK, pt)
}

func (a *API) handleBounds(w http.ResponseWriter, r *http.Request) {
	cell, err := required(r, "cell")
	if err != nil {
		a.codecError(w, r, "bounds", err)
		return
	}
	b, err := geohash.DecodeBounds(cell)
	if err != nil {
		a.codecError(w, r, "bounds", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) handleAdjacent(w http.ResponseWriter, r *http.Request) {
	cell, err := required(r, "cell")
	if err != nil {
		a.codecError(w, r, "adjacent", err)
		return
	}
	raw, err := required(r, "dir")
	if err != nil {
		a.codecError(w, r, "adjacent", err)
		return
	}
	dir, err := geohash.ParseDirection(raw)
	if err != nil {
		a.codecError(w, r, "adjacent", err)
		return
	}
	next, err := geohash.Adjacent(cell, dir)
	if err != nil {
		a.codecError(w, r, "adjacent", err)
		return
	}
	writeJSON(w, http.StatusOK, cellResp{Cell: next})
}

func (a *API) handleNeighbours(w http.ResponseWriter, r *http.Request) {
	cell, err := required(r, "cell")
	if err != nil {
		a.codecError(w, r, "neighbours", err)
		return
	}
	nb, err := geohash.AllNeighbours(cell)
	if err != nil {
		a.codecError(w, r, "neighbours", err)
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

func (a *API) handleWidth(w http.ResponseWriter, r *http.Request) {
	n, given, err := intParam(r, "n", 0)
	if err == nil && (!given || n < 1 || n > geohash.MaxPrecision) {
		err = fmt.Errorf("%w: n must be 1..%d", errBadParam, geohash.MaxPrecision)
	}
	if err != nil {
		a.codecError(w, r, "width", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		N                     int     `json:"n"`
		CalculateWidthDegrees float64 `json:"calculate_width_degrees"`
		Width                 float64 `json:"width"`
	}{n, geohash.CalculateWidthDegrees(n), geohash.Width(n)})
}

func (a *API) hierarchy(w http.ResponseWriter, r *http.Request, op string) (mapper.Hierarchy, string, int, bool) {
	h, ok := a.mapper.(mapper.Hierarchy)
	if !ok {
		http.NotFound(w, r)
		return nil, "", 0, false
	}
	cell, err := required(r, "cell")
	if err != nil {
		a.codecError(w, r, op, err)
		return nil, "", 0, false
	}
	p, given, err := intParam(r, "precision", 0)
	if err == nil && !given {
		err = fmt.Errorf("%w: missing required parameter: precision", errBadParam)
	}
	if err != nil {
		a.codecError(w, r, op, err)
		return nil, "", 0, false
	}
	return h, cell, p, true
}

func (a *API) handleParent(w http.ResponseWriter, r *http.Request) {
	h, cell, p, ok := a.hierarchy(w, r, "parent")
	if !ok {
		return
	}
	parent, err := h.ToParent(cell, p)
	if err != nil {
		a.codecError(w, r, "parent", err)
		return
	}
	writeJSON(w, http.StatusOK, cellResp{Cell: parent})
}

// children come back sorted and are limited to two levels below cell
func (a *API) handleChildren(w http.ResponseWriter, r *http.Request) {
	h, cell, p, ok := a.hierarchy(w, r, "children")
	if !ok {
		return
	}
	cells, err := h.ToChildren(cell, p)
	if err != nil {
		a.codecError(w, r, "children", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Count int         `json:"count"`
		Cells model.Cells `json:"cells"`
	}{len(cells), cells})
}
