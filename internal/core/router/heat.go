package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/internal/heat"
	mylog "github.com/mohammed-shakir/geohash-grid/internal/logger"
)

const maxPointsBody = 1 << 20

// accepts a JSON array of points or a single point object
func (a *API) handleHeatPoints(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPointsBody)
	dec := json.NewDecoder(r.Body)

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "body too large"})
			return
		}
		a.writeError(w, r, fmt.Errorf("%w: decode body: %v", errBadParam, err))
		return
	}

	var events []heat.PointEvent
	if len(raw) > 0 && raw[0] == '{' {
		var ev heat.PointEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			a.writeError(w, r, fmt.Errorf("%w: decode point: %v", errBadParam, err))
			return
		}
		events = append(events, ev)
	} else if err := json.Unmarshal(raw, &events); err != nil {
		a.writeError(w, r, fmt.Errorf("%w: decode points: %v", errBadParam, err))
		return
	}

	pts := make([]model.HeatPoint, 0, len(events))
	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			a.writeError(w, r, fmt.Errorf("point %d: %w", i, err))
			return
		}
		pts = append(pts, ev.Point())
	}

	ctx := mylog.WithComponent(r.Context(), "heat")
	n, err := a.heat.Ingest(ctx, "http", pts...)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": n})
}

func (a *API) handleHeat(w http.ResponseWriter, r *http.Request) {
	def := min(a.cfg.GridPrecision, a.heat.Precision())
	q, err := ParseGridRequest(r, def, a.heat.Precision())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	cells, err := a.heat.Grid(mylog.WithComponent(r.Context(), "heat"), q.BBox, q.Precision)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.compose(w, r, q, cells)
}
