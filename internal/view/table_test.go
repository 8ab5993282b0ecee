package view

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Guliveer/procio/internal/procio"
)

func snapshot(procs ...procio.Process) procio.ProcessesList {
	return procio.Reconcile(procio.ProcessesList{}, procs)
}

func proc(pid uint64, name string, read, write uint64) procio.Process {
	return procio.Process{
		PID:  pid,
		Name: name,
		IO:   procio.IoCounters{TotalReadBytes: read, TotalWriteBytes: write},
	}
}

func pids(rows []Row) []uint64 {
	out := make([]uint64, len(rows))
	for i, r := range rows {
		out[i] = r.PID
	}
	return out
}

func TestTable_ApplyKeepsRowPositions(t *testing.T) {
	var tbl Table

	ch := tbl.Apply(snapshot(proc(1, "a", 0, 0), proc(2, "b", 0, 0), proc(3, "c", 0, 0)))
	if !reflect.DeepEqual(ch.Inserted, []uint64{1, 2, 3}) {
		t.Errorf("Inserted = %v, want [1 2 3]", ch.Inserted)
	}

	// pid 2 exits, pid 4 appears, and enumeration order changes.
	ch = tbl.Apply(snapshot(proc(4, "d", 0, 0), proc(3, "c", 5, 0), proc(1, "a", 0, 0)))

	if got := pids(tbl.Rows()); !reflect.DeepEqual(got, []uint64{1, 3, 4}) {
		t.Errorf("rows = %v, want [1 3 4]", got)
	}
	if !reflect.DeepEqual(ch.Removed, []uint64{2}) {
		t.Errorf("Removed = %v, want [2]", ch.Removed)
	}
	if !reflect.DeepEqual(ch.Inserted, []uint64{4}) {
		t.Errorf("Inserted = %v, want [4]", ch.Inserted)
	}
	if !reflect.DeepEqual(ch.Updated, []uint64{3, 1}) {
		t.Errorf("Updated = %v, want [3 1]", ch.Updated)
	}
}

func TestTable_FallbackCells(t *testing.T) {
	var tbl Table
	tbl.Apply(snapshot(procio.Process{
		PID:     9,
		NameErr: errors.New("gone"),
		IOErr:   errors.New("permission denied"),
	}))

	row := tbl.Rows()[0]
	if row.Name != "?" || row.Read != "-" || row.Write != "-" {
		t.Errorf("row = %+v, want fallback cells", row)
	}
}

func TestTable_Sort(t *testing.T) {
	var tbl Table
	tbl.Apply(snapshot(
		proc(1, "zsh", 10, 300),
		proc(2, "bash", 500, 0),
		procio.Process{PID: 3, Name: "kthreadd", IOErr: errors.New("denied")},
	))

	tbl.Sort(ColumnRead, true)
	if got := pids(tbl.Rows()); !reflect.DeepEqual(got, []uint64{2, 1, 3}) {
		t.Errorf("by read desc = %v, want [2 1 3]", got)
	}

	tbl.Sort(ColumnName, false)
	if got := pids(tbl.Rows()); !reflect.DeepEqual(got, []uint64{2, 3, 1}) {
		t.Errorf("by name = %v, want [2 3 1]", got)
	}

	// Sorting must keep the index consistent for the next Apply.
	ch := tbl.Apply(snapshot(proc(1, "zsh", 0, 0)))
	if !reflect.DeepEqual(ch.Removed, []uint64{2, 3}) {
		t.Errorf("Removed = %v, want [2 3]", ch.Removed)
	}
	if len(ch.Inserted) != 0 {
		t.Errorf("Inserted = %v, want none", ch.Inserted)
	}
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		input string
		want  Column
		ok    bool
	}{
		{"pid", ColumnPID, true},
		{"name", ColumnName, true},
		{"read", ColumnRead, true},
		{"write", ColumnWrite, true},
		{"cpu", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseColumn(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseColumn(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "0.0 B/s"},
		{1023, "1023.0 B/s"},
		{2047, "2047.0 B/s"},
		{2048, "2.0 KiB/s"},
		{1536 * 1024, "1536.0 KiB/s"},
		{3 * 1024 * 1024, "3.0 MiB/s"},
		{^uint64(0), "16.0 EiB/s"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.input); got != tt.expected {
			t.Errorf("FormatRate(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderer_Render(t *testing.T) {
	var tbl Table
	tbl.Apply(snapshot(proc(1, "a-very-long-process-name-that-will-not-fit", 4096, 0), proc(2, "b", 0, 0)))

	var buf bytes.Buffer
	r := NewRenderer(&buf, 1)
	if err := r.Render(&tbl); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "Total read: 4.0 KiB/s") {
		t.Errorf("missing header in:\n%s", out)
	}
	if !strings.Contains(out, "Processes: 2") {
		t.Errorf("missing process count in:\n%s", out)
	}
	if strings.Contains(out, "\033[") {
		t.Error("non-terminal output should not clear the screen")
	}
	// Header, blank line, column titles and one row.
	if lines := strings.Count(out, "\n"); lines != 4 {
		t.Errorf("got %d lines, want 4:\n%s", lines, out)
	}
}
