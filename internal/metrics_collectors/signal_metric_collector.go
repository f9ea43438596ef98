package metrics_collectors

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

// SignalReader queries the modem signal quality.
type SignalReader interface {
	SignalQuality(ctx context.Context) (modem.SignalQuality, error)
}

// SignalMetricCollector collects the received signal strength of the cellular modem.
type SignalMetricCollector struct {
	Logger zerolog.Logger
	Modem  SignalReader
}

func (s *SignalMetricCollector) Name() string {
	return "signal"
}

// Collect returns the signal strength in dBm, nil when the modem reports it as unknown.
func (s *SignalMetricCollector) Collect(ctx context.Context) interface{} {
	sq, err := s.Modem.SignalQuality(ctx)
	if err != nil {
		s.Logger.Error().Err(err).Msg("Failed to query signal quality")
		return nil
	}
	if sq.Category == modem.SignalUnknown {
		return nil
	}
	return sq.DBm
}

func (s *SignalMetricCollector) IsEnabled(config *models.MetricsConfig) bool {
	return config.MonitorSignal && s.Modem != nil
}

func (s *SignalMetricCollector) Unit() string {
	return "dBm"
}

func (s *SignalMetricCollector) Description() string {
	return "Received signal strength of the cellular modem."
}
