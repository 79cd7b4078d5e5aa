package ingest

import (
	"strings"
	"time"

	"github.com/mohammed-shakir/geohash-grid/internal/core/config"
)

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
}

// FromKafka fills the consumer timeouts around the service settings.
func FromKafka(k config.KafkaCfg) Config {
	return Config{
		Brokers:          splitCSV(k.Brokers),
		Topic:            k.Topic,
		GroupID:          k.GroupID,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
	}
}

func splitCSV(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
