package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

func init() {
	enabled.Store(true)
	Init(prometheus.DefaultRegisterer, true)
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision", "branch", "build_date"},
	)

	codecErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geohash_codec_errors_total",
			Help: "Rejected geohash operations by operation.",
		},
		[]string{"op"},
	)

	gridCells = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grid_cells_per_request",
			Help:    "Number of cells returned for a viewport.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 9), // 1 to 65536
		},
		[]string{"precision"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_cache_results_total",
			Help: "Tile cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	redisOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of Redis operations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op", "result"},
	)

	heatPoints = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heat_points_ingested_total",
			Help: "Points accepted into the heat layer by source.",
		},
		[]string{"source"},
	)

	heatCells = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heat_tracked_cells",
			Help: "Cells currently holding a heat score.",
		},
	)

	kafkaConsumerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_errors_total",
			Help: "Kafka consumer errors by kind.",
		},
		[]string{"kind"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds, buildInfo,
		codecErrors, gridCells, cacheResults, redisOpDuration,
		heatPoints, heatCells, kafkaConsumerErrors,
	}
}

// Init registers the service collectors on reg and toggles recording.
// Registering on a registry that already holds them is a no-op.
func Init(reg prometheus.Registerer, on bool) {
	enabled.Store(on)
	if reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func IncCodecError(op string) {
	if !enabled.Load() {
		return
	}
	codecErrors.WithLabelValues(op).Inc()
}

func ObserveGridCells(precision, n int) {
	if !enabled.Load() {
		return
	}
	gridCells.WithLabelValues(strconv.Itoa(precision)).Observe(float64(n))
}

// tier is "lru" or "redis"
func IncCacheHit(tier string) {
	if !enabled.Load() {
		return
	}
	cacheResults.WithLabelValues(tier, "hit").Inc()
}

func IncCacheMiss(tier string) {
	if !enabled.Load() {
		return
	}
	cacheResults.WithLabelValues(tier, "miss").Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	redisOpDuration.WithLabelValues(op, result).Observe(durationSeconds)
}

func AddHeatPoints(source string, n int) {
	if !enabled.Load() || n <= 0 {
		return
	}
	heatPoints.WithLabelValues(source).Add(float64(n))
}

func SetHeatCells(n int) {
	if !enabled.Load() {
		return
	}
	heatCells.Set(float64(n))
}

func IncKafkaConsumerError(kind string) {
	if !enabled.Load() {
		return
	}
	kafkaConsumerErrors.WithLabelValues(kind).Inc()
}

func ExposeBuildInfo(version, revision, branch, buildDate string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, revision, branch, buildDate).Set(1)
}
