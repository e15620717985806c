package ingest

import (
	"archive/zip"
	"context"
	"log"
	"strings"
	"time"

	"actas/internal/formatter"
	"actas/internal/metrics"

	"github.com/google/uuid"
)

// ArchiveIngester loads raw JRV bundles packed into a ZIP archive, the
// format the published dataset ships its raw responses in.
type ArchiveIngester struct {
	store     Store
	formatter *formatter.ActaFormatter
}

// NewArchiveIngester creates a new archive ingester instance
func NewArchiveIngester(store Store, f *formatter.ActaFormatter) *ArchiveIngester {
	return &ArchiveIngester{
		store:     store,
		formatter: f,
	}
}

// Method returns the ingester type
func (a *ArchiveIngester) Method() string {
	return "zip"
}

// Ingest processes every bundle in the archive at path.
func (a *ArchiveIngester) Ingest(ctx context.Context, path string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:  uuid.New().String(),
		Method: a.Method(),
	}

	log.Printf("[%s] Opening archive: %s", summary.RunID, path)
	r, err := zip.OpenReader(path)
	if err != nil {
		return summary, NewIngestError("open", err)
	}
	defer r.Close()

	log.Printf("[%s] Found %d files in archive", summary.RunID, len(r.File))

	for _, f := range r.File {
		select {
		case <-ctx.Done():
			log.Printf("[%s] Context cancelled, stopping processing", summary.RunID)
			summary.Duration = time.Since(start).String()
			return summary, ctx.Err()
		default:
		}

		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".json") {
			continue
		}

		switch a.processEntry(ctx, f) {
		case outcomeProcessed:
			summary.Processed++
			metrics.ActasIngested.Inc()
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Failed++
			metrics.IngestFailures.Inc()
		}
	}

	summary.Duration = time.Since(start).String()
	log.Printf("[%s] Archive ingest done in %s: %d processed, %d skipped, %d failed",
		summary.RunID, summary.Duration, summary.Processed, summary.Skipped, summary.Failed)
	return summary, nil
}

func (a *ArchiveIngester) processEntry(ctx context.Context, f *zip.File) outcome {
	rc, err := f.Open()
	if err != nil {
		log.Printf("Error opening %s in archive: %v", f.Name, err)
		return outcomeFailed
	}
	raw, err := decodeBundle(rc)
	rc.Close()
	if err != nil {
		log.Printf("Error decoding %s: %v", f.Name, err)
		return outcomeFailed
	}

	if a.store.ActaExists(raw.JRV) {
		return outcomeSkipped
	}

	if err := a.formatter.ProcessRaw(ctx, raw); err != nil {
		log.Printf("Error processing JRV %d from %s: %v", raw.JRV, f.Name, err)
		return outcomeFailed
	}
	return outcomeProcessed
}

// Cleanup performs any necessary cleanup
func (a *ArchiveIngester) Cleanup() error {
	return nil
}
