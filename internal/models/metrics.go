// Package models defines the exported data structures of the monitor.
// These structures are serialized to JSON for output and transmission.
package models

import "time"

// MetricSnapshot is one sampling tick as exported to stdout or the sink.
type MetricSnapshot struct {
	Timestamp     time.Time     `json:"timestamp"`
	UptimeSeconds uint64        `json:"uptime_seconds"`
	BootTime      *time.Time    `json:"boot_time,omitempty"`
	DiskStats     DiskStats     `json:"disk_stats"`
	ProcessCount  int           `json:"process_count"`
	UnreadableIO  int           `json:"unreadable_io"`
	Devices       []DeviceIO    `json:"devices"`
	Processes     []ProcessInfo `json:"processes"`
}

// DiskStats is the system-wide aggregate of per-process rates.
type DiskStats struct {
	TotalRead    uint64 `json:"total_read"`
	TotalWrite   uint64 `json:"total_write"`
	MaximumRead  uint64 `json:"maximum_read"`
	MaximumWrite uint64 `json:"maximum_write"`
}

// DeviceIO is the per-interval traffic of one block device.
type DeviceIO struct {
	Name       string `json:"name"`
	ReadBytes  uint64 `json:"read_bytes"`
	WriteBytes uint64 `json:"write_bytes"`
}

// ProcessInfo is one process with readable I/O counters.
type ProcessInfo struct {
	PID        uint64 `json:"pid"`
	Name       string `json:"name"`
	ReadRate   uint64 `json:"read_rate"`
	WriteRate  uint64 `json:"write_rate"`
	TotalRead  uint64 `json:"total_read"`
	TotalWrite uint64 `json:"total_write"`
}

// MetricBatch is the payload sent to the sink.
type MetricBatch struct {
	Token   string           `json:"token,omitempty"`
	Metrics []MetricSnapshot `json:"metrics"`
}
