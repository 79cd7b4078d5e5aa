package router

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
)

func required(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", fmt.Errorf("%w: missing required parameter: %s", errBadParam, name)
	}
	return v, nil
}

func floatParam(r *http.Request, name string) (float64, error) {
	raw, err := required(r, name)
	if err != nil {
		return 0, err
	}
	f, err := parseFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errBadParam, name, err)
	}
	return f, nil
}

// intParam returns def when the parameter is absent.
func intParam(r *http.Request, name string, def int) (int, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s must be an integer", errBadParam, name)
	}
	return n, true, nil
}

// parseBBOX reads w,s,e,n in degrees with an optional fifth EPSG:4326
// element. w > e selects a box across the antimeridian.
func parseBBOX(bboxParam string) (model.BBox, error) {
	parts := strings.Split(bboxParam, ",")
	if len(parts) != 4 && len(parts) != 5 {
		return model.BBox{}, fmt.Errorf("%w: bbox: expected w,s,e,n[,EPSG:4326]", errBadParam)
	}
	var v [4]float64
	for i, name := range []string{"w", "s", "e", "n"} {
		f, err := parseFloat(parts[i])
		if err != nil {
			return model.BBox{}, fmt.Errorf("%w: bbox %s: %v", errBadParam, name, err)
		}
		v[i] = f
	}
	if len(parts) == 5 {
		if srid := strings.ToUpper(strings.TrimSpace(parts[4])); srid != "EPSG:4326" {
			return model.BBox{}, fmt.Errorf("%w: bbox: only EPSG:4326 is supported (got %q)", errBadParam, srid)
		}
	}
	bb := model.BBox{W: v[0], S: v[1], E: v[2], N: v[3]}

	if !(bb.W >= -180 && bb.W <= 180 && bb.E >= -180 && bb.E <= 180) {
		return model.BBox{}, fmt.Errorf("%w: bbox: longitude must be in [-180,180]", errBadParam)
	}
	if !(bb.S >= -90 && bb.S <= 90 && bb.N >= -90 && bb.N <= 90) {
		return model.BBox{}, fmt.Errorf("%w: bbox: latitude must be in [-90,90]", errBadParam)
	}
	if bb.S > bb.N {
		return model.BBox{}, fmt.Errorf("%w: bbox: south must not exceed north", errBadParam)
	}
	return bb, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}
