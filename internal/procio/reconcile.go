package procio

// Reconcile computes the per-process rates of raw against previous and
// builds the round's DiskStats. raw is consumed: its elements are copied into
// the returned snapshot, which shares no memory with previous.
func Reconcile(previous ProcessesList, raw []Process) ProcessesList {
	index := make(map[uint64]int, len(previous.Processes))
	for i, p := range previous.Processes {
		index[p.PID] = i
	}

	out := make([]Process, len(raw))
	for i, p := range raw {
		if p.IOErr == nil {
			var prev *IoCounters
			if j, ok := index[p.PID]; ok && previous.Processes[j].IOErr == nil {
				prev = &previous.Processes[j].IO
			}
			p.IO = withRates(p.IO, prev)
		}
		out[i] = p
	}

	return ProcessesList{
		Processes: out,
		DiskStats: aggregate(out),
	}
}

// withRates fills the rate fields of cur. Without a usable baseline, or when
// either counter went backwards (counter reset or pid reuse), the cumulative
// values are reported as the rate.
func withRates(cur IoCounters, prev *IoCounters) IoCounters {
	if prev == nil ||
		cur.TotalReadBytes < prev.TotalReadBytes ||
		cur.TotalWriteBytes < prev.TotalWriteBytes {
		cur.ReadRate = cur.TotalReadBytes
		cur.WriteRate = cur.TotalWriteBytes
		return cur
	}
	cur.ReadRate = cur.TotalReadBytes - prev.TotalReadBytes
	cur.WriteRate = cur.TotalWriteBytes - prev.TotalWriteBytes
	return cur
}

func aggregate(procs []Process) DiskStats {
	var stats DiskStats
	for _, p := range procs {
		if p.IOErr != nil {
			continue
		}
		stats.TotalRead += p.IO.ReadRate
		stats.TotalWrite += p.IO.WriteRate
		stats.MaximumRead = max(stats.MaximumRead, p.IO.ReadRate)
		stats.MaximumWrite = max(stats.MaximumWrite, p.IO.WriteRate)
	}
	return stats
}
