package logging

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmcd/vmcd/internal/httputil"
)

const (
	defaultBatchInterval = 60 * time.Second
	defaultMaxBatchSize  = 500
	defaultBufferSize    = 1000
)

// LogEntry represents a single log entry to be shipped to a remote
// collector webhook.
type LogEntry struct {
	Timestamp     time.Time      `json:"timestamp"`
	Level         string         `json:"level"`
	Component     string         `json:"component"`
	Message       string         `json:"message"`
	Fields        map[string]any `json:"fields,omitempty"`
	DaemonVersion string         `json:"daemonVersion"`
}

// Shipper buffers log entries and ships them to a webhook URL in
// compressed batches, using httputil's retry helper for the outbound
// POST.
type Shipper struct {
	webhookURL    string
	authToken     string
	daemonVersion string
	httpClient    *http.Client
	retryCfg      httputil.RetryConfig
	buffer        chan LogEntry
	stopChan      chan struct{}
	wg            sync.WaitGroup
	stopOnce      sync.Once
	minLevel      slog.Level
	mu            sync.RWMutex // protects minLevel
	droppedCount  atomic.Int64
}

// ShipperConfig configures the log shipper.
type ShipperConfig struct {
	WebhookURL    string
	AuthToken     string
	DaemonVersion string
	HTTPClient    *http.Client
	MinLevel      string // "debug", "info", "warn", "error"
}

// NewShipper creates a new log shipper.
func NewShipper(cfg ShipperConfig) *Shipper {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Shipper{
		webhookURL:    cfg.WebhookURL,
		authToken:     cfg.AuthToken,
		daemonVersion: cfg.DaemonVersion,
		httpClient:    client,
		retryCfg:      httputil.DefaultRetryConfig(),
		buffer:        make(chan LogEntry, defaultBufferSize),
		stopChan:      make(chan struct{}),
		minLevel:      parseLevel(cfg.MinLevel),
	}
}

// Start begins the background shipping loop.
func (s *Shipper) Start() {
	s.wg.Add(1)
	go s.shipLoop()
}

// Stop gracefully stops the shipper, flushing remaining logs.
// Safe to call multiple times.
func (s *Shipper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

// Enqueue adds a log entry to the buffer. Non-blocking; drops if buffer is full.
func (s *Shipper) Enqueue(entry LogEntry) {
	select {
	case s.buffer <- entry:
	default:
		dropped := s.droppedCount.Add(1)
		if dropped == 1 || dropped%100 == 0 {
			fmt.Fprintf(os.Stderr, "[log-shipper] buffer full, dropped %d log entries\n", dropped)
		}
	}
}

// SetMinLevel dynamically adjusts the minimum shipping level.
func (s *Shipper) SetMinLevel(level string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minLevel = parseLevel(level)
}

// ShouldShip returns true if the given level meets the minimum threshold.
func (s *Shipper) ShouldShip(level slog.Level) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return level >= s.minLevel
}

func (s *Shipper) shipLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(defaultBatchInterval)
	defer ticker.Stop()

	batch := make([]LogEntry, 0, defaultMaxBatchSize)

	for {
		select {
		case <-s.stopChan:
			// Drain remaining buffered entries
		drain:
			for {
				select {
				case entry := <-s.buffer:
					batch = append(batch, entry)
					if len(batch) >= defaultMaxBatchSize {
						s.shipBatch(batch)
						batch = batch[:0]
					}
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				s.shipBatch(batch)
			}
			return

		case entry := <-s.buffer:
			batch = append(batch, entry)
			if len(batch) >= defaultMaxBatchSize {
				s.shipBatch(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.shipBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Shipper) shipBatch(entries []LogEntry) {
	payload, err := json.Marshal(map[string]any{"logs": entries})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[log-shipper] marshal error: %v\n", err)
		s.droppedCount.Add(int64(len(entries)))
		return
	}

	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	if _, err := gw.Write(payload); err != nil {
		fmt.Fprintf(os.Stderr, "[log-shipper] gzip write error: %v\n", err)
		s.droppedCount.Add(int64(len(entries)))
		return
	}
	if err := gw.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "[log-shipper] gzip close error: %v\n", err)
		s.droppedCount.Add(int64(len(entries)))
		return
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Content-Encoding", "gzip")
	if s.authToken != "" {
		headers.Set("Authorization", "Bearer "+s.authToken)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, http.MethodPost, s.webhookURL, compressed.Bytes(), headers, s.retryCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[log-shipper] shipping %d entries failed: %v\n", len(entries), err)
		s.droppedCount.Add(int64(len(entries)))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "[log-shipper] webhook returned %d for %d entries\n", resp.StatusCode, len(entries))
		s.droppedCount.Add(int64(len(entries)))
	}
}

// DroppedLogCount returns the current count of dropped log entries and resets
// the counter to zero.
func (s *Shipper) DroppedLogCount() int64 {
	return s.droppedCount.Swap(0)
}
