package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geohash-grid/internal/cache/tilecache"
	"github.com/mohammed-shakir/geohash-grid/internal/core/config"
	"github.com/mohammed-shakir/geohash-grid/internal/heat"
	"github.com/mohammed-shakir/geohash-grid/internal/heat/expdecay"
	ghmapper "github.com/mohammed-shakir/geohash-grid/internal/mapper/geohash"
	"github.com/mohammed-shakir/geohash-grid/pkg/geohash"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{GridPrecision: 1, GridMaxPrec: 12, GridMaxCells: 20000}
	m := ghmapper.New(cfg.GridMaxCells)
	tiles := tilecache.New(16, nil, time.Minute, logger)

	now := time.Unix(1_700_000_000, 0)
	tr := expdecay.New(time.Hour, expdecay.WithClock(func() time.Time { return now }))
	layer := heat.NewLayer(tr, m, 5, logger)

	r := chi.NewRouter()
	New(logger, cfg, m, tiles, layer).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, hdr ...string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return v
}

func TestEncode(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/v1/geohash/encode?lat=52.205&lon=0.119&precision=7", "u120fxw"},
		{"/v1/geohash/encode?lat=52.205&lon=0.1188", "u120fxw"},
		{"/v1/geohash/encode?lat=42.605&lon=-5.603", "ezs42"},
	}
	for _, tt := range tests {
		resp, b := get(t, srv, tt.path)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status=%d body=%s", tt.path, resp.StatusCode, b)
		}
		if got := decode[cellResp](t, b).Cell; got != tt.want {
			t.Fatalf("%s: cell=%q want %q", tt.path, got, tt.want)
		}
	}
}

func TestEncode_BadInput(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{
		"/v1/geohash/encode?lon=0",
		"/v1/geohash/encode?lat=abc&lon=0",
		"/v1/geohash/encode?lat=1&lon=2&precision=0",
		"/v1/geohash/encode?lat=1&lon=2&precision=13",
		"/v1/geohash/encode?lat=1&lon=2&precision=x",
		"/v1/geohash/encode?lat=NaN&lon=2&precision=5",
	} {
		resp, b := get(t, srv, path)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want 400", path, resp.StatusCode)
		}
		if e := decode[map[string]string](t, b)["error"]; e == "" {
			t.Fatalf("%s: missing error message: %s", path, b)
		}
	}
}

func TestDecodeAndBounds(t *testing.T) {
	srv := newTestServer(t)

	resp, b := get(t, srv, "/v1/geohash/decode?cell=u120fxw")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("decode status=%d body=%s", resp.StatusCode, b)
	}
	if pt := decode[geohash.Point](t, b); pt != (geohash.Point{Lat: 52.205, Lon: 0.1188}) {
		t.Fatalf("decode=%+v", pt)
	}

	resp, b = get(t, srv, "/v1/geohash/bounds?cell=s")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bounds status=%d body=%s", resp.StatusCode, b)
	}
	if bb := decode[geohash.Bounds](t, b); bb != (geohash.Bounds{SW: geohash.Point{}, NE: geohash.Point{Lat: 45, Lon: 45}}) {
		t.Fatalf("bounds=%+v", bb)
	}

	for _, path := range []string{"/v1/geohash/decode?cell=u120fxa", "/v1/geohash/bounds", "/v1/geohash/bounds?cell=o"} {
		if resp, _ := get(t, srv, path); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want 400", path, resp.StatusCode)
		}
	}
}

func TestAdjacentAndNeighbours(t *testing.T) {
	srv := newTestServer(t)

	resp, b := get(t, srv, "/v1/geohash/adjacent?cell=u120fxw&dir=N")
	if resp.StatusCode != http.StatusOK || decode[cellResp](t, b).Cell != "u120fxy" {
		t.Fatalf("adjacent: status=%d body=%s", resp.StatusCode, b)
	}
	if resp, _ := get(t, srv, "/v1/geohash/adjacent?cell=u120fxw&dir=x"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad dir: status=%d want 400", resp.StatusCode)
	}
	if resp, _ := get(t, srv, "/v1/geohash/adjacent?cell=u120fxw"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing dir: status=%d want 400", resp.StatusCode)
	}

	resp, b = get(t, srv, "/v1/geohash/neighbours?cell=ezs42")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("neighbours status=%d body=%s", resp.StatusCode, b)
	}
	want := geohash.Neighbours{
		N: "ezs48", NE: "ezs49", E: "ezs43", SE: "ezs41",
		S: "ezs40", SW: "ezefp", W: "ezefr", NW: "ezefx",
	}
	if got := decode[geohash.Neighbours](t, b); got != want {
		t.Fatalf("neighbours=%+v want %+v", got, want)
	}
}

func TestWidth(t *testing.T) {
	srv := newTestServer(t)
	resp, b := get(t, srv, "/v1/geohash/width?n=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, b)
	}
	got := decode[map[string]float64](t, b)
	if got["calculate_width_degrees"] != 11.25 || got["width"] != 11.25 || got["n"] != 2 {
		t.Fatalf("width=%v", got)
	}
	for _, path := range []string{"/v1/geohash/width", "/v1/geohash/width?n=0", "/v1/geohash/width?n=13"} {
		if resp, _ := get(t, srv, path); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want 400", path, resp.StatusCode)
		}
	}
}

type gridResp struct {
	Precision int `json:"precision"`
	Count     int `json:"count"`
	Cells     []struct {
		Cell   string         `json:"cell"`
		Bounds geohash.Bounds `json:"bounds"`
		Value  float64        `json:"value"`
	} `json:"cells"`
}

func TestGrid_JSONAndCache(t *testing.T) {
	srv := newTestServer(t)
	path := "/v1/grid?bbox=-0.5,51.3,0.5,51.6&precision=4"

	resp, b := get(t, srv, path)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, b)
	}
	if resp.Header.Get("X-Cache") != "computed" {
		t.Fatalf("X-Cache=%q want computed", resp.Header.Get("X-Cache"))
	}
	g := decode[gridResp](t, b)
	if g.Precision != 4 || g.Count != 12 || g.Cells[0].Cell != "gcpt" || g.Cells[11].Cell != "u107" {
		t.Fatalf("grid=%s", b)
	}
	want, _ := geohash.DecodeBounds("gcpt")
	if g.Cells[0].Bounds != want {
		t.Fatalf("bounds=%+v want %+v", g.Cells[0].Bounds, want)
	}

	resp, _ = get(t, srv, path)
	if resp.Header.Get("X-Cache") != "lru" {
		t.Fatalf("second X-Cache=%q want lru", resp.Header.Get("X-Cache"))
	}
}

func TestGrid_GeoJSONViaAccept(t *testing.T) {
	srv := newTestServer(t)
	resp, b := get(t, srv, "/v1/grid?bbox=0.1,52.1,0.3,52.3,EPSG:4326&precision=4", "Accept", "application/geo+json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, b)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(string(b), `"FeatureCollection"`) || !strings.Contains(string(b), `"cell":"u121"`) {
		t.Fatalf("body=%s", b)
	}
}

func TestGrid_BadInput(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{
		"/v1/grid",
		"/v1/grid?bbox=1,2,3",
		"/v1/grid?bbox=0,0,1,1,EPSG:3857",
		"/v1/grid?bbox=0,2,1,1",
		"/v1/grid?bbox=-181,0,1,1",
		"/v1/grid?bbox=0,0,1,1&precision=13",
		"/v1/grid?bbox=-180,-90,180,90&precision=3", // over the cell guard
	} {
		resp, b := get(t, srv, path)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want 400 body=%s", path, resp.StatusCode, b)
		}
	}
}

func TestHeat_IngestAndQuery(t *testing.T) {
	srv := newTestServer(t)

	body := `[{"lat":52.205,"lon":0.119,"weight":2},{"lat":52.15,"lon":0.2},{"lat":52.21,"lon":0.12}]`
	resp, err := srv.Client().Post(srv.URL+"/v1/heat/points", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted || decode[map[string]int](t, b)["accepted"] != 3 {
		t.Fatalf("ingest status=%d body=%s", resp.StatusCode, b)
	}

	resp, err = srv.Client().Post(srv.URL+"/v1/heat/points", "application/json", strings.NewReader(`{"lat":1,"lon":1}`))
	if err != nil {
		t.Fatalf("POST single: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("single point status=%d", resp.StatusCode)
	}

	resp, b = get(t, srv, "/v1/heat?bbox=0.1,52.1,0.3,52.3&precision=4")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("heat status=%d body=%s", resp.StatusCode, b)
	}
	g := decode[gridResp](t, b)
	if g.Count != 2 || g.Cells[0].Cell != "u121" || g.Cells[0].Value != 1 || g.Cells[1].Cell != "u120" || g.Cells[1].Value != 3 {
		t.Fatalf("heat grid=%s", b)
	}
}

func TestHeat_BadInput(t *testing.T) {
	srv := newTestServer(t)
	for _, body := range []string{`{"lat":91,"lon":0}`, `[{"lat":0,"lon":0,"weight":-1}]`, `not json`, `[1,2]`} {
		resp, err := srv.Client().Post(srv.URL+"/v1/heat/points", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: status=%d want 400", body, resp.StatusCode)
		}
	}
	if resp, _ := get(t, srv, "/v1/heat?bbox=0,0,1,1&precision=6"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("precision above the layer: status=%d want 400", resp.StatusCode)
	}
}

func TestParentAndChildren(t *testing.T) {
	srv := newTestServer(t)

	resp, b := get(t, srv, "/v1/geohash/parent?cell=u120fxw&precision=4")
	if resp.StatusCode != http.StatusOK || decode[cellResp](t, b).Cell != "u120" {
		t.Fatalf("parent: status=%d body=%s", resp.StatusCode, b)
	}

	resp, b = get(t, srv, "/v1/geohash/children?cell=u12&precision=4")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("children: status=%d body=%s", resp.StatusCode, b)
	}
	got := decode[struct {
		Count int      `json:"count"`
		Cells []string `json:"cells"`
	}](t, b)
	if got.Count != 32 || got.Cells[0] != "u120" || got.Cells[31] != "u12z" {
		t.Fatalf("children=%+v", got)
	}

	for _, path := range []string{
		"/v1/geohash/parent?cell=u12&precision=5",
		"/v1/geohash/parent?cell=u12",
		"/v1/geohash/children?cell=u&precision=4",
		"/v1/geohash/children?cell=u1a&precision=4",
	} {
		if resp, _ := get(t, srv, path); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want 400", path, resp.StatusCode)
		}
	}
}

func TestAdjacent_RejectsBadCharacterInParent(t *testing.T) {
	srv := newTestServer(t)
	for _, cell := range []string{"ab", "u1l0", "i0"} {
		resp, b := get(t, srv, "/v1/geohash/adjacent?cell="+cell+"&dir=n")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status=%d body=%s want 400", cell, resp.StatusCode, b)
		}
	}
}
