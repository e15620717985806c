// Package ingest loads archived raw snapshot bundles into the store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"actas/internal/models"
)

// Ingester defines the interface for different ingestion strategies
type Ingester interface {
	// Method returns the ingester type (e.g., "snapshot", "zip")
	Method() string

	// Ingest processes raw bundles from the given path
	Ingest(ctx context.Context, path string) (*Summary, error)

	// Cleanup performs any necessary cleanup
	Cleanup() error
}

// Store is the subset of the storage layer the ingesters need.
type Store interface {
	ActaExists(jrv int) bool
}

// Summary reports the outcome of one ingest run. Duration is the
// time.Duration string form so JSON consumers get "1.2s", not nanoseconds.
type Summary struct {
	RunID     string `json:"run_id"`
	Method    string `json:"method"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Duration  string `json:"duration"`
}

// IngestError represents an ingestion error with a specific stage
type IngestError struct {
	Stage string
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest error at %s stage: %v", e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// NewIngestError creates a new IngestError
func NewIngestError(stage string, err error) *IngestError {
	return &IngestError{
		Stage: stage,
		Err:   err,
	}
}

// decodeBundle reads one raw JRV snapshot bundle.
func decodeBundle(r io.Reader) (*models.RawActa, error) {
	var raw models.RawActa
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return &raw, nil
}

// isRetryableError checks whether a failed save is worth another attempt.
// The embedded sqlite store reports transient contention through these
// message fragments.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryable := []string{
		"database is locked",
		"database table is locked",
		"SQLITE_BUSY",
		"connection reset",
		"timeout",
		"temporary failure",
	}
	for _, fragment := range retryable {
		if strings.Contains(errStr, fragment) {
			return true
		}
	}
	return false
}
