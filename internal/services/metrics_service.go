package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telematics-agent/internal/metrics_collectors"
	"github.com/benmeehan/telematics-agent/internal/models"
	"github.com/benmeehan/telematics-agent/internal/utils"
	"github.com/benmeehan/telematics-agent/pkg/identity"
	"github.com/benmeehan/telematics-agent/pkg/uplink"
)

const (
	metricsWorkers = 4
	metricsRetries = 3
)

// MetricsService handles system telemetry collection and publishing over the uplink.
type MetricsService struct {
	pubTopic      string
	metricsConfig models.MetricsConfig
	interval      time.Duration
	deviceInfo    identity.DeviceInfoInterface
	qos           int
	uplink        uplink.Publisher
	topic         TopicFunc
	logger        zerolog.Logger
	timeout       time.Duration
	registry      *metrics_collectors.MetricsRegistry
	workerPool    *utils.WorkerPool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMetricsService initializes and returns a new instance of MetricsService. signal may be
// nil, the signal metric is then never collected.
func NewMetricsService(
	pubTopic string,
	metricsConfig models.MetricsConfig,
	interval, timeout time.Duration,
	deviceInfo identity.DeviceInfoInterface,
	qos int,
	up uplink.Publisher,
	topic TopicFunc,
	signal metrics_collectors.SignalReader,
	logger zerolog.Logger,
) *MetricsService {
	service := &MetricsService{
		pubTopic:      pubTopic,
		metricsConfig: metricsConfig,
		interval:      interval,
		timeout:       timeout,
		deviceInfo:    deviceInfo,
		qos:           qos,
		uplink:        up,
		topic:         topic,
		logger:        logger,
		registry:      metrics_collectors.NewMetricsRegistry(),
	}

	service.registry.Register(&metrics_collectors.CPUMetricCollector{Logger: logger})
	service.registry.Register(&metrics_collectors.MemoryMetricCollector{Logger: logger})
	service.registry.Register(&metrics_collectors.DiskMetricCollector{Logger: logger})
	if signal != nil {
		service.registry.Register(&metrics_collectors.SignalMetricCollector{Logger: logger, Modem: signal})
	}

	return service
}

// Registry exposes the collectors, additional collectors may be registered before Start.
func (m *MetricsService) Registry() *metrics_collectors.MetricsRegistry {
	return m.registry
}

// Start initiates periodic metrics collection and publishing.
func (m *MetricsService) Start() error {
	if m.ctx != nil {
		m.logger.Warn().Msg("MetricsService is already running")
		return errors.New("metrics service is already running")
	}

	if len(m.registry.Enabled(&m.metricsConfig)) == 0 {
		m.logger.Error().Msg("No metrics enabled in configuration")
		return errors.New("no metrics enabled in configuration")
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.workerPool = utils.NewWorkerPool(metricsWorkers)
	m.wg.Add(1)
	go m.runMetricsCollectionLoop()

	m.logger.Info().Str("topic", m.pubTopic).Dur("interval", m.interval).Msg("MetricsService started successfully")
	return nil
}

// runMetricsCollectionLoop runs the main metrics collection and publishing loop.
func (m *MetricsService) runMetricsCollectionLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !m.uplink.Connected() {
				m.logger.Debug().Msg("Uplink not connected, skipping metrics")
				continue
			}
			metrics := m.collectMetrics()
			metrics.DeviceID = m.deviceInfo.GetDeviceID()

			if err := m.publishMetrics(metrics); err != nil {
				m.logger.Error().Err(err).Msg("Failed to publish metrics")
			}
		case <-m.ctx.Done():
			m.logger.Info().Msg("Stopping metrics collection")
			return
		}
	}
}

// collectMetrics gathers the enabled metrics concurrently. Collectors returning nil are left out.
func (m *MetricsService) collectMetrics() *models.SystemMetrics {
	metrics := &models.SystemMetrics{
		Timestamp: time.Now().UTC(),
		Metrics:   make(map[string]models.Metric),
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()

	var wg sync.WaitGroup
	metricsMutex := &sync.Mutex{}

	for _, collector := range m.registry.Enabled(&m.metricsConfig) {
		collector := collector
		wg.Add(1)
		submitted := m.workerPool.Submit(func() {
			defer wg.Done()
			value := collector.Collect(ctx)
			if value == nil {
				return
			}

			metricsMutex.Lock()
			defer metricsMutex.Unlock()
			metrics.Metrics[collector.Name()] = models.Metric{
				Value: value,
				Unit:  collector.Unit(),
			}
		})
		if !submitted {
			wg.Done()
		}
	}

	wg.Wait()
	m.logger.Debug().Interface("metrics", metrics).Msg("Metrics collected successfully")
	return metrics
}

// publishMetrics sends the collected metrics, retrying with a linear backoff.
func (m *MetricsService) publishMetrics(metrics *models.SystemMetrics) error {
	metricsData, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to serialize metrics: %w", err)
	}

	topic := m.topic(m.pubTopic)
	var lastErr error
	for i := 0; i < metricsRetries; i++ {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		lastErr = m.uplink.Publish(ctx, topic, byte(m.qos), false, metricsData)
		cancel()
		if lastErr == nil {
			m.logger.Debug().Str("topic", topic).Msg("Metrics published successfully")
			return nil
		}
		m.logger.Warn().Err(lastErr).Int("retry", i+1).Msg("Retrying to publish metrics...")

		select {
		case <-time.After(time.Duration(i+1) * time.Second):
		case <-m.ctx.Done():
			return m.ctx.Err()
		}
	}

	return fmt.Errorf("failed to publish metrics after %d retries: %w", metricsRetries, lastErr)
}

// Stop gracefully stops the metrics service.
func (m *MetricsService) Stop() error {
	if m.ctx == nil {
		m.logger.Warn().Msg("MetricsService is not running")
		return errors.New("metrics service is not running")
	}

	m.cancel()
	m.wg.Wait()
	m.workerPool.Shutdown()
	m.ctx = nil
	m.cancel = nil
	m.logger.Info().Msg("MetricsService stopped successfully")
	return nil
}
