// Package metrics records pipeline counters for node-exporter's textfile
// collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"byweb/internal/models"
)

const namespace = "byweb"

// Metrics holds every collector of one pipeline run.
type Metrics struct {
	registry *prometheus.Registry

	shardsTotal      *prometheus.CounterVec
	documentsTotal   prometheus.Counter
	documentsSkipped *prometheus.CounterVec
	shardDuration    prometheus.Histogram
	bytesTotal       *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		shardsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shards_total",
			Help:      "Shards handled, by outcome",
		}, []string{"status"}),

		documentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents extracted",
		}),

		documentsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_skipped_total",
			Help:      "Documents dropped, by stage",
		}, []string{"stage"}),

		shardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shard_duration_seconds",
			Help:      "Time spent on one shard",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),

		bytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decompressed_bytes_total",
			Help:      "Bytes read and written by the decompressor",
		}, []string{"direction"}),
	}

	m.registry.MustRegister(
		m.shardsTotal,
		m.documentsTotal,
		m.documentsSkipped,
		m.shardDuration,
		m.bytesTotal,
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveShard records the outcome of one shard.
func (m *Metrics) ObserveShard(r *models.ShardResult) {
	m.shardsTotal.WithLabelValues(string(r.Status)).Inc()
	m.documentsTotal.Add(float64(len(r.Documents)))

	for _, d := range r.Dropped {
		m.documentsSkipped.WithLabelValues(string(d.Stage)).Inc()
	}

	if r.Status != models.ShardResumed {
		m.shardDuration.Observe(r.Duration.Seconds())
	}
}

// ObserveBytes records decompressor throughput.
func (m *Metrics) ObserveBytes(compressed, decompressed int64) {
	m.bytesTotal.WithLabelValues("in").Add(float64(compressed))
	m.bytesTotal.WithLabelValues("out").Add(float64(decompressed))
}

// WriteTextfile writes the registry in the text exposition format. The
// collector only reads complete files, which prometheus.WriteToTextfile
// guarantees by writing through a temp file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
