package metrics_collectors

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

type fakeSignal struct {
	quality modem.SignalQuality
	err     error
}

func (f fakeSignal) SignalQuality(ctx context.Context) (modem.SignalQuality, error) {
	return f.quality, f.err
}

func TestSignalMetricCollector_Collect(t *testing.T) {
	tests := []struct {
		name   string
		reader fakeSignal
		want   interface{}
	}{
		{"good signal", fakeSignal{quality: modem.NewSignalQuality(18, 0)}, -77},
		{"unknown signal", fakeSignal{quality: modem.NewSignalQuality(99, 99)}, nil},
		{"modem error", fakeSignal{err: errors.New("timeout")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			c := &SignalMetricCollector{Logger: zerolog.Nop(), Modem: tt.reader}

			// Execute
			got := c.Collect(context.Background())

			// Assert
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignalMetricCollector_IsEnabled(t *testing.T) {
	enabled := &models.MetricsConfig{MonitorSignal: true}

	assert.True(t, (&SignalMetricCollector{Modem: fakeSignal{}}).IsEnabled(enabled))
	assert.False(t, (&SignalMetricCollector{}).IsEnabled(enabled))
	assert.False(t, (&SignalMetricCollector{Modem: fakeSignal{}}).IsEnabled(&models.MetricsConfig{}))
}

func TestMetricsRegistry_Enabled(t *testing.T) {
	// Setup
	logger := zerolog.Nop()
	r := NewMetricsRegistry()
	r.Register(&MemoryMetricCollector{Logger: logger})
	r.Register(&CPUMetricCollector{Logger: logger})
	r.Register(&DiskMetricCollector{Logger: logger})
	r.Register(&SignalMetricCollector{Logger: logger, Modem: fakeSignal{}})

	// Execute
	enabled := r.Enabled(&models.MetricsConfig{MonitorCPU: true, MonitorDisk: true, MonitorSignal: true})

	// Assert
	names := make([]string, 0, len(enabled))
	for _, c := range enabled {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"cpu", "disk", "signal"}, names)
	assert.Len(t, r.GetCollectors(), 4)
}

func TestMemoryMetricCollector_Collect(t *testing.T) {
	// Setup
	c := &MemoryMetricCollector{Logger: zerolog.Nop()}

	// Execute
	got := c.Collect(context.Background())

	// Assert
	percent, ok := got.(float64)
	if assert.True(t, ok) {
		assert.GreaterOrEqual(t, percent, 0.0)
		assert.LessOrEqual(t, percent, 100.0)
	}
	assert.Equal(t, "percentage", c.Unit())
}
