// Package router holds the HTTP handlers of the grid service.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geohash-grid/internal/cache/tilecache"
	"github.com/mohammed-shakir/geohash-grid/internal/core/config"
	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/internal/heat"
	"github.com/mohammed-shakir/geohash-grid/internal/mapper"
	ghmapper "github.com/mohammed-shakir/geohash-grid/internal/mapper/geohash"
	"github.com/mohammed-shakir/geohash-grid/pkg/geohash"
)

// HeatLayer is the part of heat.Layer the handlers use.
type HeatLayer interface {
	Ingest(ctx context.Context, source string, pts ...model.HeatPoint) (int, error)
	Grid(ctx context.Context, bb model.BBox, precision int) ([]model.GridCell, error)
	Precision() int
}

type API struct {
	logger *slog.Logger
	cfg    config.Config
	mapper mapper.Interface
	tiles  *tilecache.Cache
	heat   HeatLayer
}

// New wires the handlers. tiles and heat may be nil; without tiles every
// grid request is computed, without heat the heat routes are not mounted.
func New(logger *slog.Logger, cfg config.Config, m mapper.Interface, tiles *tilecache.Cache, h HeatLayer) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{logger: logger, cfg: cfg, mapper: m, tiles: tiles, heat: h}
}

func (a *API) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/geohash", func(r chi.Router) {
			r.Get("/encode", a.handleEncode)
			r.Get("/decode", a.handleDecode)
			r.Get("/bounds", a.handleBounds)
			r.Get("/adjacent", a.handleAdjacent)
			r.Get("/neighbours", a.handleNeighbours)
			r.Get("/width", a.handleWidth)
			r.Get("/parent", a.handleParent)
			r.Get("/children", a.handleChildren)
		})
		r.Get("/grid", a.handleGrid)
		if a.heat != nil {
			r.Post("/heat/points", a.handleHeatPoints)
			r.Get("/heat", a.handleHeat)
		}
	})
}

var errBadParam = errors.New("bad parameter")

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadParam),
		errors.Is(err, geohash.ErrInvalidGeohash),
		errors.Is(err, geohash.ErrInvalidDirection),
		errors.Is(err, geohash.ErrTooManyCells),
		errors.Is(err, ghmapper.ErrInvalidPrecision),
		errors.Is(err, ghmapper.ErrInvalidBBox),
		errors.Is(err, heat.ErrInvalidPoint),
		errors.Is(err, heat.ErrPrecisionTooFine):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with {"error": "..."}; 5xx details stay in the log.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		a.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		msg = http.StatusText(status)
	} else {
		a.logger.WarnContext(r.Context(), "request rejected", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
