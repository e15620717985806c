package ingest

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"actas/internal/formatter"
	"actas/internal/metrics"

	"github.com/google/uuid"
)

const (
	jobQueueSize = 1000
	maxAttempts  = 3
)

// SnapshotIngester loads raw JRV bundles from a directory tree. Files are
// fed through a bounded queue to a pool of workers; stations already in the
// store are skipped so interrupted runs can resume.
type SnapshotIngester struct {
	store     Store
	formatter *formatter.ActaFormatter
	workers   int
}

// NewSnapshotIngester creates a new snapshot ingester instance
func NewSnapshotIngester(store Store, f *formatter.ActaFormatter, workers int) *SnapshotIngester {
	if workers < 1 {
		workers = 1
	}
	return &SnapshotIngester{
		store:     store,
		formatter: f,
		workers:   workers,
	}
}

// Method returns the ingester type
func (s *SnapshotIngester) Method() string {
	return "snapshot"
}

// Ingest walks the snapshot directory and processes every bundle in it.
func (s *SnapshotIngester) Ingest(ctx context.Context, path string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:  uuid.New().String(),
		Method: s.Method(),
	}

	log.Printf("[%s] Starting snapshot ingest from %s (%d workers)", summary.RunID, path, s.workers)

	jobs := make(chan string, jobQueueSize)
	var processed, skipped, failed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				switch s.processFile(ctx, file) {
				case outcomeProcessed:
					processed.Add(1)
					metrics.ActasIngested.Inc()
				case outcomeSkipped:
					skipped.Add(1)
				case outcomeFailed:
					failed.Add(1)
					metrics.IngestFailures.Inc()
				}
			}
		}()
	}

	walkErr := filepath.WalkDir(path, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(file), ".json") {
			return nil
		}
		select {
		case jobs <- file:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	close(jobs)
	wg.Wait()

	summary.Processed = int(processed.Load())
	summary.Skipped = int(skipped.Load())
	summary.Failed = int(failed.Load())
	summary.Duration = time.Since(start).String()

	if walkErr != nil {
		return summary, NewIngestError("walk", walkErr)
	}

	log.Printf("[%s] Snapshot ingest done in %s: %d processed, %d skipped, %d failed",
		summary.RunID, summary.Duration, summary.Processed, summary.Skipped, summary.Failed)
	return summary, nil
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (s *SnapshotIngester) processFile(ctx context.Context, file string) outcome {
	f, err := os.Open(file)
	if err != nil {
		log.Printf("Error opening %s: %v", file, err)
		return outcomeFailed
	}
	raw, err := decodeBundle(f)
	f.Close()
	if err != nil {
		log.Printf("Error decoding %s: %v", file, err)
		return outcomeFailed
	}

	if s.store.ActaExists(raw.JRV) {
		return outcomeSkipped
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.formatter.ProcessRaw(ctx, raw)
		if err == nil {
			return outcomeProcessed
		}
		if ctx.Err() != nil || !isRetryableError(err) {
			break
		}
		time.Sleep(time.Duration(attempt) * time.Second)
	}

	log.Printf("Error processing JRV %d from %s: %v", raw.JRV, file, err)
	return outcomeFailed
}

// Cleanup performs any necessary cleanup
func (s *SnapshotIngester) Cleanup() error {
	return nil
}
