package metrics_collectors

import (
	"context"

	"github.com/benmeehan/telematics-agent/internal/models"
)

// MetricCollector collects one value of the metrics report. Collect returns nil when the
// value is unavailable and the metric is left out of the report.
type MetricCollector interface {
	Name() string                                // Key in the report (e.g. "cpu", "signal")
	Collect(ctx context.Context) interface{}     // Collect the metric value, nil when unavailable
	IsEnabled(config *models.MetricsConfig) bool // Selected by the monitor section of the config
	Unit() string                                // Unit of the value (e.g. "percentage", "dBm")
	Description() string
}
