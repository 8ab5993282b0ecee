// Package collector provides a registry for managing collectors.
// Collectors are registered at startup; the scheduler queries the registry
// once per tick to run all available collectors concurrently.
package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry manages all registered collectors and orchestrates concurrent collection.
type Registry struct {
	collectors []Collector
	logger     *zap.Logger
}

// NewRegistry creates a new collector registry with the given logger.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		collectors: make([]Collector, 0),
		logger:     logger.Named("registry"),
	}
}

// Register adds a collector if it's available on the current platform.
// Unavailable collectors are logged and skipped.
func (r *Registry) Register(c Collector) {
	if c.IsAvailable() {
		r.collectors = append(r.collectors, c)
		r.logger.Info("Registered collector", zap.String("name", c.Name()))
	} else {
		r.logger.Warn("Collector not available, skipping", zap.String("name", c.Name()))
	}
}

// CollectAll runs all registered collectors concurrently and returns a map
// of collector name -> result data. A failed collector is logged and left out
// of the map; it never prevents the others from completing.
func (r *Registry) CollectAll(ctx context.Context) map[string]interface{} {
	results := make(map[string]interface{}, len(r.collectors))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range r.collectors {
		wg.Add(1)
		go func(col Collector) {
			defer wg.Done()
			start := time.Now()
			data, err := col.Collect(ctx)
			if err != nil {
				r.logger.Error("Collection failed",
					zap.String("collector", col.Name()),
					zap.Error(err))
				return
			}
			r.logger.Debug("Collected",
				zap.String("collector", col.Name()),
				zap.Duration("took", time.Since(start)))
			mu.Lock()
			results[col.Name()] = data
			mu.Unlock()
		}(c)
	}

	wg.Wait()
	return results
}

// Collectors returns a copy of all registered collectors.
func (r *Registry) Collectors() []Collector {
	result := make([]Collector, len(r.collectors))
	copy(result, r.collectors)
	return result
}
