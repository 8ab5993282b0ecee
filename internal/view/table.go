// Package view keeps a display-ready table of processes in sync with the
// snapshots produced by procio. Rows keep their position across refreshes:
// existing rows are updated in place, new processes are appended and rows of
// exited processes are dropped.
package view

import (
	"sort"
	"strconv"

	"github.com/Guliveer/procio/internal/procio"
)

// Column identifies a sortable table column.
type Column int

const (
	ColumnPID Column = iota
	ColumnName
	ColumnRead
	ColumnWrite
)

// ParseColumn maps a config value to a Column.
func ParseColumn(s string) (Column, bool) {
	switch s {
	case "pid":
		return ColumnPID, true
	case "name":
		return ColumnName, true
	case "read":
		return ColumnRead, true
	case "write":
		return ColumnWrite, true
	default:
		return 0, false
	}
}

// Row is one rendered process.
type Row struct {
	PID   uint64
	Name  string
	Read  string
	Write string

	// Raw rates for sorting; -1 when the counters could not be read.
	readRate  int64
	writeRate int64
}

// Changes describes how an Apply call altered the table.
type Changes struct {
	Inserted []uint64
	Updated  []uint64
	Removed  []uint64
}

// Table is the row model behind the process list. The zero value is empty
// and ready to use. A Table is not safe for concurrent use.
type Table struct {
	rows  []Row
	index map[uint64]int
	stats procio.DiskStats
}

// Apply reconciles the table with snap.
func (t *Table) Apply(snap procio.ProcessesList) Changes {
	var ch Changes

	live := make(map[uint64]struct{}, len(snap.Processes))
	for _, p := range snap.Processes {
		live[p.PID] = struct{}{}
	}

	// Drop rows of exited processes, compacting in place.
	kept := t.rows[:0]
	for _, r := range t.rows {
		if _, ok := live[r.PID]; ok {
			kept = append(kept, r)
		} else {
			ch.Removed = append(ch.Removed, r.PID)
		}
	}
	t.rows = kept
	t.reindex()

	for _, p := range snap.Processes {
		row := rowFor(p)
		if i, ok := t.index[p.PID]; ok {
			t.rows[i] = row
			ch.Updated = append(ch.Updated, p.PID)
			continue
		}
		t.index[p.PID] = len(t.rows)
		t.rows = append(t.rows, row)
		ch.Inserted = append(ch.Inserted, p.PID)
	}

	t.stats = snap.DiskStats
	return ch
}

// Rows returns a copy of the rows in display order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Stats returns the aggregate of the last applied snapshot.
func (t *Table) Stats() procio.DiskStats { return t.stats }

// Sort reorders the rows by col. Ties keep their current relative order.
func (t *Table) Sort(col Column, descending bool) {
	less := func(a, b Row) bool {
		switch col {
		case ColumnName:
			return a.Name < b.Name
		case ColumnRead:
			return a.readRate < b.readRate
		case ColumnWrite:
			return a.writeRate < b.writeRate
		default:
			return a.PID < b.PID
		}
	}
	sort.SliceStable(t.rows, func(i, j int) bool {
		if descending {
			return less(t.rows[j], t.rows[i])
		}
		return less(t.rows[i], t.rows[j])
	})
	t.reindex()
}

func (t *Table) reindex() {
	if t.index == nil {
		t.index = make(map[uint64]int, len(t.rows))
	} else {
		clear(t.index)
	}
	for i, r := range t.rows {
		t.index[r.PID] = i
	}
}

func rowFor(p procio.Process) Row {
	r := Row{
		PID:       p.PID,
		Name:      p.DisplayName(),
		Read:      "-",
		Write:     "-",
		readRate:  -1,
		writeRate: -1,
	}
	if p.HasIO() {
		r.Read = FormatRate(p.IO.ReadRate)
		r.Write = FormatRate(p.IO.WriteRate)
		r.readRate = clampInt64(p.IO.ReadRate)
		r.writeRate = clampInt64(p.IO.WriteRate)
	}
	return r
}

func clampInt64(v uint64) int64 {
	if v > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(v)
}

// PIDString formats a pid for display.
func PIDString(pid uint64) string { return strconv.FormatUint(pid, 10) }
