// Package collector defines the Collector interface and the collectors that
// feed each sampling tick: per-process I/O, block devices and host facts.
package collector

import "context"

// Collector is the interface that all collectors must implement.
// Each collector gathers one kind of fact per tick.
type Collector interface {
	// Name returns the unique identifier for this collector.
	Name() string

	// Collect gathers the data for one tick and returns it.
	// The context allows for cancellation and timeout control.
	Collect(ctx context.Context) (interface{}, error)

	// IsAvailable checks if this collector can run on the current platform.
	// Collectors that return false will not be registered.
	IsAvailable() bool
}
