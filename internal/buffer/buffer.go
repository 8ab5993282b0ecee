// Package buffer keeps export batches on disk while the sink is unreachable.
// Each batch is one timestamped JSON file; file names sort chronologically.
// The total size is bounded by dropping the oldest batches.
package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/procio/internal/models"
)

const (
	filePrefix = "batch-"
	fileExt    = ".json"
)

// Buffer is a directory of pending batches.
type Buffer struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
	mu       sync.Mutex

	// now is swapped in tests to produce distinct file names.
	now func() time.Time
}

// New creates a buffer in dir, creating the directory if needed.
func New(dir string, maxSizeMB int, logger *zap.Logger) (*Buffer, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating buffer directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Buffer{
		dir:      dir,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
		logger:   logger.Named("buffer"),
		now:      time.Now,
	}, nil
}

// Store writes a batch to disk. Oldest batches are dropped until the new one
// fits under the size limit.
func (b *Buffer) Store(metrics []models.MetricSnapshot) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshaling batch: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	files, size := b.batchFiles()
	for len(files) > 0 && size+int64(len(data)) > b.maxBytes {
		b.logger.Warn("Buffer full, dropping oldest batch", zap.String("file", files[0].name))
		if err := os.Remove(files[0].path); err != nil {
			b.logger.Warn("Failed to remove oldest batch", zap.Error(err))
			break
		}
		size -= files[0].size
		files = files[1:]
	}

	name := filePrefix + b.now().UTC().Format("20060102T150405.000000000") + fileExt
	return os.WriteFile(filepath.Join(b.dir, name), data, 0640)
}

// RetrieveAll reads and removes every buffered batch, oldest first.
// Unparsable files are removed and logged.
func (b *Buffer) RetrieveAll() ([][]models.MetricSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(b.dir); err != nil {
		return nil, err
	}

	files, _ := b.batchFiles()
	var batches [][]models.MetricSnapshot
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			b.logger.Warn("Failed to read buffered batch",
				zap.String("file", f.path),
				zap.Error(err))
			continue
		}

		var batch []models.MetricSnapshot
		if err := json.Unmarshal(data, &batch); err != nil {
			b.logger.Warn("Failed to parse buffered batch, removing it",
				zap.String("file", f.path),
				zap.Error(err))
			os.Remove(f.path)
			continue
		}

		batches = append(batches, batch)
		os.Remove(f.path)
	}

	return batches, nil
}

// Count returns the number of buffered batches.
func (b *Buffer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	files, _ := b.batchFiles()
	return len(files)
}

type batchFile struct {
	name string
	path string
	size int64
}

// batchFiles lists batch files oldest first with their total size.
// Must be called with b.mu held.
func (b *Buffer) batchFiles() ([]batchFile, int64) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, 0
	}

	var files []batchFile
	var total int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || filepath.Ext(name) != fileExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, batchFile{name: name, path: filepath.Join(b.dir, name), size: info.Size()})
		total += info.Size()
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, total
}
