// Package scheduler implements the tick-based sampling loop. Each tick runs
// the collectors, assembles a snapshot and hands it to the tick callback;
// snapshots are also batched for export. The scheduler does NOT render or
// send anything itself.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/procio/internal/collector"
	"github.com/Guliveer/procio/internal/config"
	"github.com/Guliveer/procio/internal/models"
	"github.com/Guliveer/procio/internal/procio"
)

// collectTimeout bounds the collectors that honour their context. The
// process sampler does not, and a stuck procfs read stalls the tick.
const collectTimeout = 10 * time.Second

// Tick is the outcome of one sampling round.
type Tick struct {
	Snapshot  models.MetricSnapshot
	Processes procio.ProcessesList
}

// Scheduler manages periodic collection and batching.
type Scheduler struct {
	registry *collector.Registry
	cfg      *config.Config
	logger   *zap.Logger

	batch   []models.MetricSnapshot
	batchMu sync.Mutex

	onTick       func(Tick)
	onBatchReady func([]models.MetricSnapshot)
}

// New creates a new Scheduler with the given registry, config, and logger.
func New(registry *collector.Registry, cfg *config.Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		registry: registry,
		cfg:      cfg,
		logger:   logger.Named("scheduler"),
		batch:    make([]models.MetricSnapshot, 0),
	}
}

// OnTick sets the callback invoked after every collection. It runs on the
// scheduler goroutine; the next tick is not consumed until it returns.
func (s *Scheduler) OnTick(fn func(Tick)) {
	s.onTick = fn
}

// OnBatchReady sets the callback invoked when a batch of snapshots is ready
// to send. Without it no batch is accumulated.
func (s *Scheduler) OnBatchReady(fn func([]models.MetricSnapshot)) {
	s.onBatchReady = fn
}

// Start begins the collection and batching loops. It blocks until the context
// is cancelled. On shutdown, it flushes any remaining batch.
func (s *Scheduler) Start(ctx context.Context) {
	collectTicker := time.NewTicker(s.cfg.Sampling.Interval.Duration)
	batchTicker := time.NewTicker(s.cfg.Sampling.BatchInterval.Duration)

	defer collectTicker.Stop()
	defer batchTicker.Stop()

	// Do an initial collection immediately
	s.Collect(ctx)

	for {
		select {
		case <-ctx.Done():
			s.flushBatch()
			return
		case <-collectTicker.C:
			s.Collect(ctx)
		case <-batchTicker.C:
			s.flushBatch()
		}
	}
}

// Collect runs one sampling round and returns it. It is exported for
// one-shot use; Start calls it on every tick.
func (s *Scheduler) Collect(ctx context.Context) Tick {
	collectCtx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	results := s.registry.CollectAll(collectCtx)
	tick := s.assemble(results)

	if s.onBatchReady != nil {
		s.batchMu.Lock()
		s.batch = append(s.batch, tick.Snapshot)
		s.batchMu.Unlock()
	}

	s.logger.Debug("Collected snapshot",
		zap.Time("timestamp", tick.Snapshot.Timestamp),
		zap.Int("processes", tick.Snapshot.ProcessCount),
		zap.Uint64("total_read", tick.Snapshot.DiskStats.TotalRead),
		zap.Uint64("total_write", tick.Snapshot.DiskStats.TotalWrite))

	if s.onTick != nil {
		s.onTick(tick)
	}
	return tick
}

// flushBatch sends the current batch via the callback and resets the buffer.
func (s *Scheduler) flushBatch() {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batch := s.batch
	s.batch = make([]models.MetricSnapshot, 0)
	s.batchMu.Unlock()

	s.logger.Info("Flushing batch", zap.Int("count", len(batch)))

	if s.onBatchReady != nil {
		s.onBatchReady(batch)
	}
}

// assemble maps collector results into a Tick.
func (s *Scheduler) assemble(results map[string]interface{}) Tick {
	tick := Tick{
		Snapshot: models.MetricSnapshot{
			Timestamp: time.Now().UTC(),
		},
	}

	// Processes
	if data, ok := results[collector.ProcessIOName]; ok {
		if procs, ok := data.(procio.ProcessesList); ok {
			tick.Processes = procs
			st := procs.DiskStats
			tick.Snapshot.DiskStats = models.DiskStats{
				TotalRead:    st.TotalRead,
				TotalWrite:   st.TotalWrite,
				MaximumRead:  st.MaximumRead,
				MaximumWrite: st.MaximumWrite,
			}
			tick.Snapshot.ProcessCount = procs.Len()
			tick.Snapshot.Processes, tick.Snapshot.UnreadableIO = topProcesses(procs, s.cfg.Sampling.TopProcesses)
		}
	}

	// Block devices
	if data, ok := results[collector.DeviceName]; ok {
		if devices, ok := data.([]collector.DeviceIO); ok {
			tick.Snapshot.Devices = make([]models.DeviceIO, len(devices))
			for i, d := range devices {
				tick.Snapshot.Devices[i] = models.DeviceIO(d)
			}
		}
	}

	// Host
	if data, ok := results[collector.HostName]; ok {
		if h, ok := data.(collector.HostResult); ok {
			tick.Snapshot.UptimeSeconds = h.UptimeSeconds
			boot := h.BootTime
			tick.Snapshot.BootTime = &boot
		}
	}

	return tick
}

// topProcesses returns the n busiest processes with readable counters,
// ordered by combined read and write rate, and the number of processes whose
// counters could not be read. n <= 0 keeps every readable process.
func topProcesses(procs procio.ProcessesList, n int) ([]models.ProcessInfo, int) {
	infos := make([]models.ProcessInfo, 0, procs.Len())
	unreadable := 0
	for _, p := range procs.Processes {
		if !p.HasIO() {
			unreadable++
			continue
		}
		infos = append(infos, models.ProcessInfo{
			PID:        p.PID,
			Name:       p.DisplayName(),
			ReadRate:   p.IO.ReadRate,
			WriteRate:  p.IO.WriteRate,
			TotalRead:  p.IO.TotalReadBytes,
			TotalWrite: p.IO.TotalWriteBytes,
		})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return activity(infos[i]) > activity(infos[j])
	})

	if n > 0 && len(infos) > n {
		infos = infos[:n]
	}
	return infos, unreadable
}

// activity sums both rates, saturating instead of wrapping.
func activity(p models.ProcessInfo) uint64 {
	sum := p.ReadRate + p.WriteRate
	if sum < p.ReadRate {
		return ^uint64(0)
	}
	return sum
}
