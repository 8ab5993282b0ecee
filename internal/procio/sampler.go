package procio

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DefaultRoot is the process-information root on Linux.
const DefaultRoot = "/proc"

// Sampler reads the process table from a procfs-style directory tree.
// It is not safe for concurrent use; callers serialise refreshes.
type Sampler struct {
	root   string
	logger *zap.Logger
}

// NewSampler creates a sampler rooted at root. An empty root means
// DefaultRoot and a nil logger disables logging.
func NewSampler(root string, logger *zap.Logger) *Sampler {
	if root == "" {
		root = DefaultRoot
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{root: root, logger: logger}
}

// Root returns the directory the sampler enumerates.
func (s *Sampler) Root() string { return s.root }

// Refresh samples the process table and reconciles it against previous.
// If the root cannot be listed the result is an empty snapshot.
func Refresh(previous ProcessesList) ProcessesList {
	return NewSampler(DefaultRoot, nil).Refresh(previous)
}

// Refresh samples the process table and reconciles it against previous.
// It never fails: an unlistable root yields an empty snapshot and
// per-process failures are recorded on the affected process.
func (s *Sampler) Refresh(previous ProcessesList) ProcessesList {
	raw, err := s.Sample()
	if err != nil {
		s.logger.Warn("Failed to list process root, returning empty snapshot",
			zap.String("root", s.root),
			zap.Error(err))
		return ProcessesList{}
	}
	return Reconcile(previous, raw)
}

// Sample enumerates the root and reads the name and I/O counters of every
// process entry, in directory order. Rates are left at zero.
func (s *Sampler) Sample() ([]Process, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	procs := make([]Process, 0, len(entries))
	seen := make(map[uint64]struct{}, len(entries))
	var nameFailures, ioFailures int

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		// "0042" and "42" name the same pid.
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}

		dir := filepath.Join(s.root, e.Name())
		p := Process{PID: pid}
		p.Name, p.NameErr = readName(dir)
		p.IO, p.IOErr = readIOCounters(dir)

		if p.NameErr != nil {
			nameFailures++
		}
		if p.IOErr != nil {
			ioFailures++
		}
		procs = append(procs, p)
	}

	s.logger.Debug("Sampled process table",
		zap.Int("processes", len(procs)),
		zap.Int("name_failures", nameFailures),
		zap.Int("io_failures", ioFailures))

	return procs, nil
}

func readName(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readIOCounters(dir string) (IoCounters, error) {
	data, err := os.ReadFile(filepath.Join(dir, "io"))
	if err != nil {
		return IoCounters{}, err
	}
	return ParseIOCounters(string(data))
}
