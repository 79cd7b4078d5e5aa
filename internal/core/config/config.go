package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	minPrecision = 1
	maxPrecision = 12
)

type KafkaCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	GroupID string
}

type Config struct {
	Addr          string
	LogLevel      string
	LogConsole    bool
	LogSampleN    int
	GridPrecision int
	GridMaxPrec   int
	GridMaxCells  int

	CacheEnabled    bool
	RedisAddr       string
	CacheTTLDefault time.Duration
	CacheOpTimeout  time.Duration
	CacheLRUSize    int

	HeatPrecision int
	HeatHalfLife  time.Duration
	HeatKafka     KafkaCfg

	MetricsEnabled bool
	MetricsAddr    string
	MetricsPath    string
}

func FromEnv() Config {
	maxPrec := clampPrecision(getint("GRID_PRECISION_MAX", maxPrecision))
	def := clampPrecision(getint("GRID_PRECISION_DEFAULT", 1))
	if def > maxPrec {
		def = maxPrec
	}

	maxCells := getint("GRID_MAX_CELLS", 20000)
	if maxCells <= 0 {
		maxCells = 20000
	}

	lruSize := getint("CACHE_LRU_SIZE", 1024)
	if lruSize <= 0 {
		lruSize = 1024
	}

	return Config{
		Addr:          getenv("ADDR", ":8090"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogConsole:    getbool("LOG_CONSOLE", false),
		LogSampleN:    getint("LOG_SAMPLE_N", 0),
		GridPrecision: def,
		GridMaxPrec:   maxPrec,
		GridMaxCells:  maxCells,

		CacheEnabled:    getbool("CACHE_ENABLED", false),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		CacheTTLDefault: getduration("CACHE_TTL_DEFAULT", 10*time.Minute),
		CacheOpTimeout:  getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheLRUSize:    lruSize,

		HeatPrecision: clampPrecision(getint("HEAT_PRECISION", 7)),
		HeatHalfLife:  getduration("HEAT_HALF_LIFE", 10*time.Minute),
		HeatKafka: KafkaCfg{
			Enabled: getbool("HEAT_KAFKA_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "geo-points"),
			GroupID: getenv("KAFKA_GROUP_ID", "heat-ingest"),
		},

		MetricsEnabled: getbool("METRICS_ENABLED", false),
		MetricsAddr:    getenv("METRICS_ADDR", ":9090"),
		MetricsPath:    getenv("METRICS_PATH", "/metrics"),
	}
}

func clampPrecision(p int) int {
	if p < minPrecision {
		return minPrecision
	}
	if p > maxPrecision {
		return maxPrecision
	}
	return p
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
