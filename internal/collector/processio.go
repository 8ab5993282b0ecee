// Per-process I/O collector: drives the procio sampler once per tick and
// carries the previous snapshot from one tick to the next.
package collector

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Guliveer/procio/internal/procio"
)

// ProcessIOName is the registry key of the process I/O collector.
const ProcessIOName = "processes"

// ProcessIOCollector owns the current process snapshot and hands it back to
// the sampler as the baseline of the next refresh.
type ProcessIOCollector struct {
	sampler *procio.Sampler
	logger  *zap.Logger

	mu       sync.Mutex
	previous procio.ProcessesList
}

// NewProcessIOCollector creates a collector sampling the procfs tree at root.
func NewProcessIOCollector(root string, logger *zap.Logger) *ProcessIOCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("procio")
	return &ProcessIOCollector{
		sampler: procio.NewSampler(root, logger),
		logger:  logger,
	}
}

// Name returns the collector identifier.
func (c *ProcessIOCollector) Name() string { return ProcessIOName }

// Collect refreshes the process table and returns the new procio.ProcessesList.
// Refreshes are serialised; the sampler itself never fails, so the only
// error is a context that was already done.
func (c *ProcessIOCollector) Collect(ctx context.Context) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.sampler.Refresh(c.previous)
	c.previous = snap
	return snap, nil
}

// IsAvailable reports whether the root looks like procfs. A root that is
// listable but not procfs (a test fixture, a bind mount copy) is accepted
// with a warning.
func (c *ProcessIOCollector) IsAvailable() bool {
	if err := procio.CheckRoot(c.sampler.Root()); err != nil {
		c.logger.Warn("Process root is not procfs, sampling anyway",
			zap.String("root", c.sampler.Root()),
			zap.Error(err))
	}
	return true
}
