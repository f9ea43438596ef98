package metrics_collectors

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/disk"

	"github.com/benmeehan/telematics-agent/internal/models"
)

// DiskMetricCollector collects disk usage metrics of the filesystem holding Path.
type DiskMetricCollector struct {
	Logger zerolog.Logger
	// Path defaults to the root filesystem.
	Path string
}

func (d *DiskMetricCollector) Name() string {
	return "disk"
}

func (d *DiskMetricCollector) Collect(ctx context.Context) interface{} {
	path := d.Path
	if path == "" {
		path = "/"
	}
	diskStats, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		d.Logger.Error().Err(err).Str("path", path).Msg("Failed to get disk usage")
		return nil
	}
	return diskStats.UsedPercent
}

func (d *DiskMetricCollector) IsEnabled(config *models.MetricsConfig) bool {
	return config.MonitorDisk
}

func (d *DiskMetricCollector) Unit() string {
	return "percentage"
}

func (d *DiskMetricCollector) Description() string {
	return "Percentage of disk space used on the monitored filesystem."
}
