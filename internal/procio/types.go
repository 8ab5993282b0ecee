// Package procio samples the Linux process table and turns the cumulative
// per-process I/O counters exposed under /proc/<pid>/io into per-interval
// byte deltas and system-wide aggregates.
//
// The package keeps no state between calls: every refresh takes the previous
// snapshot as an argument and returns a new, independent one.
package procio

// IoCounters holds the cumulative I/O counters of a process together with
// the deltas derived from the previous sample.
type IoCounters struct {
	// TotalReadBytes and TotalWriteBytes are the kernel's cumulative
	// counters since process start.
	TotalReadBytes  uint64 `json:"total_read_bytes"`
	TotalWriteBytes uint64 `json:"total_write_bytes"`

	// ReadRate and WriteRate are the bytes accumulated since the previous
	// sample. They are only meaningful within the snapshot that holds them.
	ReadRate  uint64 `json:"read_rate"`
	WriteRate uint64 `json:"write_rate"`
}

// Process is one live process at sample time. The name and the I/O counters
// are read independently and may fail independently.
type Process struct {
	PID uint64

	Name    string
	NameErr error

	IO    IoCounters
	IOErr error
}

// HasIO reports whether the I/O counters were read successfully this round.
func (p Process) HasIO() bool { return p.IOErr == nil }

// DisplayName returns the process name, or "?" when it could not be read.
func (p Process) DisplayName() string {
	if p.NameErr != nil {
		return "?"
	}
	return p.Name
}

// DiskStats aggregates the per-process rates of a single round.
type DiskStats struct {
	TotalRead    uint64 `json:"total_read"`
	TotalWrite   uint64 `json:"total_write"`
	MaximumRead  uint64 `json:"maximum_read"`
	MaximumWrite uint64 `json:"maximum_write"`
}

// ProcessesList is a snapshot of the process table. It is never modified
// after being returned; the next refresh supersedes it entirely.
type ProcessesList struct {
	Processes []Process
	DiskStats DiskStats
}

// Lookup returns the process with the given pid.
func (l ProcessesList) Lookup(pid uint64) (Process, bool) {
	for _, p := range l.Processes {
		if p.PID == pid {
			return p, true
		}
	}
	return Process{}, false
}

// Len returns the number of processes in the snapshot.
func (l ProcessesList) Len() int { return len(l.Processes) }
