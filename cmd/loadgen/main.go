package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/internal/heat"
	"github.com/mohammed-shakir/geohash-grid/internal/heat/publish"
)

type Config struct {
	TargetURL      string
	Brokers        string
	Topic          string
	Points         int
	Concurrency    int
	Duration       time.Duration
	ZipfS          float64
	ZipfV          float64
	BBoxCount      int
	Precision      int
	Endpoint       string
	OutputPrefix   string
	RequestTimeout time.Duration
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.TargetURL, "target", "http://localhost:8090", "grid server base URL")
	flag.StringVar(&cfg.Brokers, "brokers", "", "Kafka brokers (csv); empty posts points over HTTP")
	flag.StringVar(&cfg.Topic, "topic", "geo-points", "Kafka topic for point events")
	flag.IntVar(&cfg.Points, "points", 5000, "point events to send before querying")
	flag.IntVar(&cfg.Concurrency, "concurrency", 16, "concurrent query workers")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "query phase duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.BBoxCount, "bboxes", 128, "distinct viewports in pool")
	flag.IntVar(&cfg.Precision, "precision", 5, "precision requested per viewport")
	flag.StringVar(&cfg.Endpoint, "endpoint", "grid", "endpoint to query: grid|heat|both")
	flag.StringVar(&cfg.OutputPrefix, "out", "", "write <out>_summary.json when set")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 10*time.Second, "per-request timeout")
	flag.Parse()
	return cfg
}

// a few hot centres (lon, lat) plus uniform background over Europe
var centers = [][2]float64{
	{0.1218, 52.2053},  // Cambridge
	{-0.1278, 51.5074}, // London
	{18.0686, 59.3293}, // Stockholm
	{2.3522, 48.8566},  // Paris
}

func makeBBoxes(count int, r *rand.Rand) []model.BBox {
	out := make([]model.BBox, 0, count)
	hot := max(8, count/4)
	for i := 0; i < hot && len(out) < count; i++ {
		c := centers[i%len(centers)]
		dx, dy := (r.Float64()-0.5)*0.2, (r.Float64()-0.5)*0.2
		w, h := 0.12+r.Float64()*0.08, 0.08+r.Float64()*0.06
		lon, lat := c[0]+dx, c[1]+dy
		out = append(out, model.BBox{W: lon - w/2, S: lat - h/2, E: lon + w/2, N: lat + h/2})
	}
	for len(out) < count {
		lon := -10 + r.Float64()*40
		lat := 40 + r.Float64()*25
		w, h := 0.05+0.2*r.Float64(), 0.05+0.15*r.Float64()
		out = append(out, model.BBox{W: lon - w/2, S: lat - h/2, E: lon + w/2, N: lat + h/2})
	}
	return out
}

func randomPoint(r *rand.Rand) heat.PointEvent {
	c := centers[r.Intn(len(centers))]
	return heat.PointEvent{
		Version: 1,
		Lat:     c[1] + r.NormFloat64()*0.05,
		Lon:     c[0] + r.NormFloat64()*0.08,
		Weight:  1 + float64(r.Intn(3)),
		TS:      time.Now().UTC(),
		Source:  "loadgen",
	}
}

func sendKafka(cfg Config, r *rand.Rand, log *slog.Logger) error {
	p, err := publish.New(strings.Split(cfg.Brokers, ","), cfg.Topic, 4096, log)
	if err != nil {
		return err
	}
	for range cfg.Points {
		for !p.Publish(randomPoint(r)) {
			time.Sleep(time.Millisecond)
		}
	}
	if err := p.Close(); err != nil {
		return err
	}
	log.Info("points published", "topic", cfg.Topic, "points", cfg.Points, "failed", p.Failed())
	return nil
}

func sendHTTP(ctx context.Context, client *http.Client, cfg Config, r *rand.Rand, log *slog.Logger) error {
	const batch = 500
	endpoint := strings.TrimRight(cfg.TargetURL, "/") + "/v1/heat/points"
	sent := 0
	for sent < cfg.Points {
		n := min(batch, cfg.Points-sent)
		evs := make([]heat.PointEvent, n)
		for i := range evs {
			evs[i] = randomPoint(r)
		}
		body, err := json.Marshal(evs)
		if err != nil {
			return fmt.Errorf("marshal points: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("post points: %w", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusAccepted {
			return fmt.Errorf("post points: status %d", resp.StatusCode)
		}
		sent += n
	}
	log.Info("points posted", "endpoint", endpoint, "points", sent)
	return nil
}

type sample struct {
	Latency time.Duration
	Status  int
	Err     bool
	Cache   string
}

type summary struct {
	StartTime     time.Time        `json:"start"`
	DurationSec   float64          `json:"duration_sec"`
	TotalRequests int64            `json:"total"`
	SuccessCount  int64            `json:"success"`
	ErrorCount    int64            `json:"errors"`
	ThroughputRPS float64          `json:"throughput_rps"`
	P50Ms         float64          `json:"p50_ms"`
	P95Ms         float64          `json:"p95_ms"`
	P99Ms         float64          `json:"p99_ms"`
	CacheSources  map[string]int64 `json:"cache_sources,omitempty"`
	Concurrency   int              `json:"concurrency"`
	Precision     int              `json:"precision"`
	BBoxes        int              `json:"bboxes"`
	TargetURL     string           `json:"target"`
}

func queryURL(base, endpoint string, bb model.BBox, precision int) string {
	u, _ := url.Parse(strings.TrimRight(base, "/") + "/v1/" + endpoint)
	q := u.Query()
	q.Set("bbox", bb.String())
	q.Set("precision", fmt.Sprint(precision))
	u.RawQuery = q.Encode()
	return u.String()
}

func runQueries(ctx context.Context, client *http.Client, cfg Config, bboxes []model.BBox, seed int64) summary {
	endpoints := []string{cfg.Endpoint}
	if cfg.Endpoint == "both" {
		endpoints = []string{"grid", "heat"}
	}
	imax := uint64(len(bboxes)) - 1

	samples := make(chan sample, 4096)
	var wg sync.WaitGroup
	start := time.Now()
	for id := range cfg.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed + int64(id) + 1))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, imax)
			for ctx.Err() == nil {
				bb := bboxes[int(zipf.Uint64())]
				ep := endpoints[r.Intn(len(endpoints))]

				t0 := time.Now()
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, queryURL(cfg.TargetURL, ep, bb, cfg.Precision), nil)
				req.Header.Set("Accept", "application/json")
				resp, err := client.Do(req)
				s := sample{Latency: time.Since(t0)}
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					s.Err = true
				} else {
					s.Status = resp.StatusCode
					s.Cache = resp.Header.Get("X-Cache")
					_, _ = io.Copy(io.Discard, resp.Body)
					_ = resp.Body.Close()
					s.Err = resp.StatusCode < 200 || resp.StatusCode >= 300
				}
				select {
				case samples <- s:
				case <-ctx.Done():
					return
				}
			}
		}(id)
	}
	go func() {
		wg.Wait()
		close(samples)
	}()

	out := summary{StartTime: start.UTC(), CacheSources: map[string]int64{}}
	lat := make([]float64, 0, 1<<16)
	for s := range samples {
		out.TotalRequests++
		if s.Err {
			out.ErrorCount++
			continue
		}
		out.SuccessCount++
		lat = append(lat, float64(s.Latency.Microseconds())/1000.0)
		if s.Cache != "" {
			out.CacheSources[s.Cache]++
		}
	}
	out.DurationSec = time.Since(start).Seconds()
	if out.DurationSec > 0 {
		out.ThroughputRPS = float64(out.TotalRequests) / out.DurationSec
	}
	sort.Float64s(lat)
	out.P50Ms, out.P95Ms, out.P99Ms = percentile(lat, 50), percentile(lat, 95), percentile(lat, 99)
	out.Concurrency, out.Precision, out.BBoxes, out.TargetURL = cfg.Concurrency, cfg.Precision, len(bboxes), cfg.TargetURL
	return out
}

func percentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sortedValues[0]
	}
	if p >= 100 {
		return sortedValues[len(sortedValues)-1]
	}
	k := (p / 100.0) * float64(len(sortedValues)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sortedValues)-1 {
		return sortedValues[len(sortedValues)-1]
	}
	d := k - f
	return sortedValues[i]*(1-d) + sortedValues[i+1]*d
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := loadConfig()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if cfg.Concurrency < 1 || cfg.BBoxCount < 1 {
		log.Error("concurrency and bboxes must be positive")
		return 2
	}
	if cfg.ZipfS <= 1 || cfg.ZipfV < 1 {
		log.Error("zipf needs s > 1 and v >= 1")
		return 2
	}

	seed := time.Now().UnixNano()
	r := rand.New(rand.NewSource(seed))
	client := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: 4 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:        1024,
			MaxIdleConnsPerHost: 256,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: cfg.RequestTimeout,
	}

	if cfg.Points > 0 {
		var err error
		if strings.TrimSpace(cfg.Brokers) != "" {
			err = sendKafka(cfg, r, log)
		} else {
			err = sendHTTP(context.Background(), client, cfg, r, log)
		}
		if err != nil {
			log.Error("sending points failed", "err", err)
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()
	log.Info("query phase", "target", cfg.TargetURL, "endpoint", cfg.Endpoint, "duration", cfg.Duration, "concurrency", cfg.Concurrency)
	sum := runQueries(ctx, client, cfg, makeBBoxes(cfg.BBoxCount, r), seed)

	log.Info("done", "total", sum.TotalRequests, "success", sum.SuccessCount, "errors", sum.ErrorCount,
		"rps", fmt.Sprintf("%.1f", sum.ThroughputRPS), "p50_ms", sum.P50Ms, "p95_ms", sum.P95Ms, "p99_ms", sum.P99Ms,
		"cache", sum.CacheSources)

	if cfg.OutputPrefix != "" {
		path := filepath.Clean(cfg.OutputPrefix + "_summary.json")
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			log.Error("mkdir results", "err", err)
			return 1
		}
		b, _ := json.MarshalIndent(sum, "", "  ")
		if err := os.WriteFile(path, b, 0o600); err != nil {
			log.Error("write summary", "err", err)
			return 1
		}
		log.Info("wrote summary", "path", path)
	}
	return 0
}
