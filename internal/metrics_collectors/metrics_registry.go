package metrics_collectors

import (
	"sort"

	"github.com/benmeehan/telematics-agent/internal/models"
)

// MetricsRegistry holds the metric collectors by name.
type MetricsRegistry struct {
	collectors map[string]MetricCollector
}

// NewMetricsRegistry creates a new MetricsRegistry instance.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		collectors: make(map[string]MetricCollector),
	}
}

// Register adds a metric collector, replacing any collector with the same name.
func (r *MetricsRegistry) Register(collector MetricCollector) {
	r.collectors[collector.Name()] = collector
}

// GetCollectors returns all the metric collectors registered in the registry.
func (r *MetricsRegistry) GetCollectors() map[string]MetricCollector {
	return r.collectors
}

// Enabled returns the collectors enabled by config, sorted by name.
func (r *MetricsRegistry) Enabled(config *models.MetricsConfig) []MetricCollector {
	enabled := make([]MetricCollector, 0, len(r.collectors))
	for _, c := range r.collectors {
		if c.IsEnabled(config) {
			enabled = append(enabled, c)
		}
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].Name() < enabled[j].Name() })
	return enabled
}
