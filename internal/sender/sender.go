// Package sender implements the HTTP batch sender with retry logic.
// It marshals snapshot batches to JSON, compresses with gzip, and POSTs
// them to the sink with exponential backoff on failure.
package sender

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/procio/internal/buffer"
	"github.com/Guliveer/procio/internal/config"
	"github.com/Guliveer/procio/internal/models"
)

const (
	// maxRetries is the maximum number of retry attempts before buffering locally.
	maxRetries = 3

	// baseRetryDelay is the base delay for exponential backoff between retries.
	baseRetryDelay = 2 * time.Second

	// requestTimeout is the HTTP request timeout for each send attempt.
	requestTimeout = 10 * time.Second
)

// Sender handles batch transmission to the sink with retry logic and local
// buffering as a fallback when the sink is unreachable.
type Sender struct {
	client     *http.Client
	cfg        config.SinkConfig
	logger     *zap.Logger
	buf        *buffer.Buffer
	retryDelay time.Duration
}

// New creates a new Sender for the given sink. buf may be nil, in which case
// undeliverable batches are dropped.
func New(cfg config.SinkConfig, logger *zap.Logger, buf *buffer.Buffer) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		client: &http.Client{
			Timeout: requestTimeout,
		},
		cfg:        cfg,
		logger:     logger.Named("sender"),
		buf:        buf,
		retryDelay: baseRetryDelay,
	}
}

// Send attempts to deliver a batch. On failure after all retries, the batch
// is buffered locally for later transmission.
func (s *Sender) Send(ctx context.Context, metrics []models.MetricSnapshot) {
	payload, err := encode(models.MetricBatch{Token: s.cfg.Token, Metrics: metrics})
	if err != nil {
		s.logger.Error("Failed to encode batch", zap.Error(err))
		s.bufferBatch(metrics)
		return
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay << (attempt - 1)
			s.logger.Warn("Retrying send",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				s.logger.Warn("Send cancelled, buffering batch", zap.Error(ctx.Err()))
				s.bufferBatch(metrics)
				return
			case <-time.After(delay):
			}
		}

		err := s.doSend(ctx, payload)
		if err == nil {
			s.logger.Debug("Batch sent successfully", zap.Int("snapshots", len(metrics)))
			return
		}

		// Rate limited: buffer immediately without further retries
		if isRateLimited(err) {
			s.logger.Warn("Rate limited by sink, buffering batch", zap.Error(err))
			s.bufferBatch(metrics)
			return
		}

		s.logger.Warn("Send failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	s.logger.Error("All retries exhausted, buffering batch")
	s.bufferBatch(metrics)
}

func encode(batch models.MetricBatch) ([]byte, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("finalize gzip: %w", err)
	}
	return compressed.Bytes(), nil
}

// doSend performs a single HTTP POST to the ingest endpoint.
func (s *Sender) doSend(ctx context.Context, payload []byte) error {
	url := strings.TrimRight(s.cfg.URL, "/") + s.cfg.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &rateLimitError{statusCode: resp.StatusCode}
	}

	return fmt.Errorf("sink returned %d", resp.StatusCode)
}

// bufferBatch stores a failed batch in the local file buffer.
func (s *Sender) bufferBatch(metrics []models.MetricSnapshot) {
	if s.buf == nil {
		s.logger.Warn("No buffer available, dropping snapshots",
			zap.Int("count", len(metrics)))
		return
	}
	if err := s.buf.Store(metrics); err != nil {
		s.logger.Error("Failed to buffer snapshots", zap.Error(err))
	}
}

// FlushBuffer attempts to send all previously buffered batches.
// Called on startup to drain batches stored during prior outages.
func (s *Sender) FlushBuffer(ctx context.Context) {
	if s.buf == nil {
		return
	}

	batches, err := s.buf.RetrieveAll()
	if err != nil {
		s.logger.Error("Failed to retrieve buffered batches", zap.Error(err))
		return
	}

	if len(batches) == 0 {
		return
	}

	s.logger.Info("Flushing buffered batches", zap.Int("batches", len(batches)))

	for _, batch := range batches {
		s.Send(ctx, batch)
	}
}

// rateLimitError indicates the sink returned HTTP 429.
type rateLimitError struct {
	statusCode int
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited (%d)", e.statusCode)
}

// isRateLimited checks whether an error is a rate limit response.
func isRateLimited(err error) bool {
	var rl *rateLimitError
	return errors.As(err, &rl)
}
