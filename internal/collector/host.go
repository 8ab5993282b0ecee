// Host collector: uptime and boot time stamped on every exported snapshot.
// Uses gopsutil host for both values.
package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// HostName is the registry key of the host collector.
const HostName = "host"

// HostResult holds the host facts of one tick.
type HostResult struct {
	UptimeSeconds uint64    `json:"uptime_seconds"`
	BootTime      time.Time `json:"boot_time"`
}

// HostCollector collects system uptime and boot time.
type HostCollector struct{}

// NewHostCollector creates a new host collector.
func NewHostCollector() *HostCollector {
	return &HostCollector{}
}

// Name returns the collector identifier.
func (c *HostCollector) Name() string { return HostName }

// Collect gathers the uptime in seconds and the boot time.
func (c *HostCollector) Collect(ctx context.Context) (interface{}, error) {
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, err
	}
	bootTime, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return HostResult{
		UptimeSeconds: uptime,
		BootTime:      time.Unix(int64(bootTime), 0).UTC(),
	}, nil
}

// IsAvailable returns true: gopsutil reads both values from /proc/uptime and
// /proc/stat.
func (c *HostCollector) IsAvailable() bool { return true }
