package models

import "time"

// MetricsConfig selects the collectors that run.
type MetricsConfig struct {
	MonitorCPU    bool `yaml:"cpu" env:"METRICS_CPU"`
	MonitorMemory bool `yaml:"memory" env:"METRICS_MEMORY"`
	MonitorDisk   bool `yaml:"disk" env:"METRICS_DISK"`
	MonitorSignal bool `yaml:"signal" env:"METRICS_SIGNAL"`
}

// Metric is one collected value.
type Metric struct {
	Value interface{} `json:"value"`
	Unit  string      `json:"unit"`
}

// SystemMetrics represents the system metrics collected at a specific time
type SystemMetrics struct {
	Timestamp time.Time         `json:"timestamp"`
	DeviceID  string            `json:"device_id"`
	Metrics   map[string]Metric `json:"metrics"`
}
