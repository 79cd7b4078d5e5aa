package heat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/geohash-grid/internal/composer"
	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/internal/core/observability"
	"github.com/mohammed-shakir/geohash-grid/internal/logger"
	"github.com/mohammed-shakir/geohash-grid/internal/mapper"
	"github.com/mohammed-shakir/geohash-grid/pkg/geohash"
)

var ErrPrecisionTooFine = errors.New("precision finer than the heat layer")

type timedAdder interface {
	AddAt(cell string, weight float64, at time.Time)
}

type pruner interface {
	Prune(minScore float64) int
}

type Layer struct {
	tracker   Interface
	mapper    mapper.Interface
	precision int
	log       *slog.Logger
}

// NewLayer accumulates points at precision cells in tracker and tiles
// viewports with m.
func NewLayer(tracker Interface, m mapper.Interface, precision int, log *slog.Logger) *Layer {
	if precision < 1 || precision > geohash.MaxPrecision {
		precision = 7
	}
	if log == nil {
		log = slog.Default()
	}
	return &Layer{tracker: tracker, mapper: m, precision: precision, log: log}
}

func (l *Layer) Precision() int { return l.precision }

// Ingest validates the whole batch before recording any of it.
func (l *Layer) Ingest(ctx context.Context, source string, pts ...model.HeatPoint) (int, error) {
	cells := make([]string, len(pts))
	for i, p := range pts {
		if err := ValidatePoint(p); err != nil {
			return 0, fmt.Errorf("point %d: %w", i, err)
		}
		c, err := geohash.Encode(p.Lat, p.Lon, l.precision)
		if err != nil {
			return 0, fmt.Errorf("point %d: %w", i, err)
		}
		cells[i] = c
	}

	ta, timed := l.tracker.(timedAdder)
	for i, p := range pts {
		w := p.Weight
		if w == 0 {
			w = 1
		}
		if timed {
			ta.AddAt(cells[i], w, p.TS)
		} else {
			l.tracker.Add(cells[i], w)
		}
	}

	observability.AddHeatPoints(source, len(pts))
	l.observeSize()
	if len(pts) > 0 {
		l.log.DebugContext(logger.WithCell(ctx, cells[0]), "heat points ingested", "source", source, "points", len(pts))
	}
	return len(pts), nil
}

// Grid tiles bb at precision and sums the heat of every tracked cell
// under each tile. Tiles without heat are left out; the rest keep walk order.
func (l *Layer) Grid(ctx context.Context, bb model.BBox, precision int) ([]model.GridCell, error) {
	if precision > l.precision {
		return nil, fmt.Errorf("%w: %d > %d", ErrPrecisionTooFine, precision, l.precision)
	}
	tiles, err := l.mapper.CellsForBBox(bb, precision)
	if err != nil {
		return nil, err
	}

	inView := make(map[string]struct{}, len(tiles))
	for _, c := range tiles {
		inView[c] = struct{}{}
	}
	sums := make(map[string]float64)
	for cell, score := range l.tracker.Snapshot() {
		if len(cell) < precision || score <= 0 {
			continue
		}
		p := cell[:precision]
		if _, ok := inView[p]; ok {
			sums[p] += score
		}
	}

	hot := make(model.Cells, 0, len(sums))
	for _, c := range tiles {
		if sums[c] > 0 {
			hot = append(hot, c)
		}
	}
	l.log.DebugContext(ctx, "heat grid", "tiles", len(tiles), "hot", len(hot), "precision", precision)
	return composer.GridCells(hot, sums)
}

// Run prunes cells that decayed below minScore every interval until ctx ends.
func (l *Layer) Run(ctx context.Context, every time.Duration, minScore float64) {
	p, ok := l.tracker.(pruner)
	if !ok || every <= 0 {
		return
	}
	tk := time.NewTicker(every)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if n := p.Prune(minScore); n > 0 {
				l.log.Debug("heat cells pruned", "removed", n)
			}
			l.observeSize()
		}
	}
}

func (l *Layer) observeSize() {
	if s, ok := l.tracker.(Sizer); ok {
		observability.SetHeatCells(s.Size())
	}
}
