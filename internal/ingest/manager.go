package ingest

import (
	"context"
	"fmt"
	"log"

	"actas/internal/formatter"
)

// Manager manages different types of ingesters
type Manager struct {
	ingesters map[string]Ingester
}

// NewManager creates a new ingest manager with the built-in ingesters registered
func NewManager(store Store, f *formatter.ActaFormatter, workers int) *Manager {
	m := &Manager{
		ingesters: make(map[string]Ingester),
	}

	m.RegisterIngester(NewSnapshotIngester(store, f, workers))
	m.RegisterIngester(NewArchiveIngester(store, f))

	return m
}

// RegisterIngester adds a new ingester to the manager
func (m *Manager) RegisterIngester(ingester Ingester) {
	m.ingesters[ingester.Method()] = ingester
}

// GetIngester retrieves an ingester by method
func (m *Manager) GetIngester(method string) (Ingester, error) {
	ingester, ok := m.ingesters[method]
	if !ok {
		return nil, fmt.Errorf("no ingester found for method: %s", method)
	}
	return ingester, nil
}

// IngestPath ingests raw bundles from a path using the appropriate ingester
func (m *Manager) IngestPath(ctx context.Context, method, path string) (*Summary, error) {
	ingester, err := m.GetIngester(method)
	if err != nil {
		return nil, err
	}

	return ingester.Ingest(ctx, path)
}

// Cleanup performs any necessary cleanup
func (m *Manager) Cleanup() {
	for _, ing := range m.ingesters {
		if err := ing.Cleanup(); err != nil {
			log.Printf("Error cleaning up ingester: %v", err)
		}
	}
}
