// Package publish sends heat point events to Kafka without blocking callers.
package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/geohash-grid/internal/heat"
	"github.com/mohammed-shakir/geohash-grid/pkg/geohash"
)

// key precision: points of one ~20 km cell share a partition
const keyPrecision = 4

type Publisher struct {
	topic   string
	events  chan heat.PointEvent
	prod    sarama.AsyncProducer
	log     *slog.Logger
	dropped atomic.Int64
	failed  atomic.Int64
	stopped chan struct{}
	errDone chan struct{}
}

func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	return cfg
}

// New connects an async producer to brokers.
func New(brokers []string, topic string, queueSize int, log *slog.Logger) (*Publisher, error) {
	prod, err := sarama.NewAsyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("publish: create async producer: %w", err)
	}
	return NewWithProducer(prod, topic, queueSize, log), nil
}

// NewWithProducer wraps an existing producer. The publisher owns it from
// here on and closes it in Close.
func NewWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, log *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		events:  make(chan heat.PointEvent, queueSize),
		prod:    prod,
		log:     log,
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}
	go p.loop()
	go p.drainErrors()
	return p
}

func (p *Publisher) loop() {
	defer close(p.stopped)
	for ev := range p.events {
		b, err := json.Marshal(ev)
		if err != nil {
			p.log.Warn("publish: marshal point", "err", err)
			continue
		}
		msg := &sarama.ProducerMessage{Topic: p.topic, Value: sarama.ByteEncoder(b)}
		if k := partitionKey(ev); k != "" {
			msg.Key = sarama.StringEncoder(k)
		}
		p.prod.Input() <- msg
	}
}

func (p *Publisher) drainErrors() {
	defer close(p.errDone)
	for err := range p.prod.Errors() {
		if err != nil {
			p.failed.Add(1)
			p.log.Warn("publish: producer error", "err", err)
		}
	}
}

func partitionKey(ev heat.PointEvent) string {
	if heat.ValidatePoint(ev.Point()) != nil {
		return ""
	}
	c, err := geohash.Encode(ev.Lat, ev.Lon, keyPrecision)
	if err != nil {
		return ""
	}
	return c
}

// Publish queues ev and reports false when the queue is full.
func (p *Publisher) Publish(ev heat.PointEvent) bool {
	if ev.Version == 0 {
		ev.Version = 1
	}
	ev.Source = strings.TrimSpace(ev.Source)
	select {
	case p.events <- ev:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

// Dropped counts events refused by a full queue.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Failed counts events the producer reported as undeliverable.
func (p *Publisher) Failed() int64 { return p.failed.Load() }

// Close flushes queued events and closes the producer. Publish must not be
// called afterwards.
func (p *Publisher) Close() error {
	close(p.events)
	<-p.stopped
	p.prod.AsyncClose()
	<-p.errDone
	return nil
}
