package buffer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Guliveer/procio/internal/models"
)

func stepClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func batch(processCount int) []models.MetricSnapshot {
	return []models.MetricSnapshot{{ProcessCount: processCount}}
}

func TestBuffer_StoreAndRetrieveInOrder(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "buf"), 1, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	b.now = stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	for i := 1; i <= 3; i++ {
		if err := b.Store(batch(i)); err != nil {
			t.Fatal(err)
		}
	}
	if n := b.Count(); n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}

	batches, err := b.RetrieveAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	for i, got := range batches {
		if got[0].ProcessCount != i+1 {
			t.Errorf("batch %d ProcessCount = %d, want %d", i, got[0].ProcessCount, i+1)
		}
	}
	if n := b.Count(); n != 0 {
		t.Errorf("Count after retrieve = %d, want 0", n)
	}
}

func TestBuffer_DropsOldestWhenFull(t *testing.T) {
	b, err := New(t.TempDir(), 0, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	b.now = stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := b.Store(batch(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.Store(batch(2)); err != nil {
		t.Fatal(err)
	}

	batches, err := b.RetrieveAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || batches[0][0].ProcessCount != 2 {
		t.Errorf("got %v, want only the newest batch", batches)
	}
}

func TestBuffer_RemovesCorruptedFiles(t *testing.T) {
	dir := t.TempDir()
	b, err := New(dir, 1, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	corrupt := filepath.Join(dir, "batch-00000000T000000.000000000.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0640); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0640); err != nil {
		t.Fatal(err)
	}

	batches, err := b.RetrieveAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 0 {
		t.Errorf("got %d batches, want 0", len(batches))
	}
	if _, err := os.Stat(corrupt); !os.IsNotExist(err) {
		t.Error("corrupted batch should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("unrelated file should be left alone")
	}
}
