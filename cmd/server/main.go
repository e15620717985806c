package main

import (
	"log"
	"net/http"
	"os"

	"actas/internal/config"
	"actas/internal/formatter"
	"actas/internal/handlers"
	"actas/internal/ingest"
	"actas/internal/metrics"
	"actas/internal/quality"
	"actas/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatal("Failed to create data directory:", err)
	}

	// Initialize PocketBase store with data directory
	store, err := storage.NewPocketBaseStore(cfg.DataDir, cfg.PBHTTPAddr)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	// Initialize ingest manager
	actaFormatter := formatter.New(store)
	manager := ingest.NewManager(store, actaFormatter, cfg.WorkerCount)
	defer manager.Cleanup()

	// Initialize quality detector and handler
	detector := quality.NewDetector(store)
	actaHandler := handlers.NewActaHandler(store, manager, detector, cfg.SnapshotDir, cfg.ExportDir)

	// Create mux router
	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("/api/actas", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			actaHandler.HandleGetActa(w, r)
		case http.MethodPost:
			actaHandler.HandleSaveActa(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/actas/{jrv}", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			actaHandler.HandleGetActa(w, r)
		case http.MethodPut:
			actaHandler.HandleUpdateActa(w, r)
		case http.MethodDelete:
			actaHandler.HandleDeleteActa(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/actas/bulk", actaHandler.HandleBulkSaveActas)
	mux.HandleFunc("/api/ingest/{method}", actaHandler.HandleIngest)
	mux.HandleFunc("/api/quality/report", actaHandler.HandleQualityReport)
	mux.HandleFunc("/api/anomalies", actaHandler.HandleGetAnomalies)
	mux.HandleFunc("/api/summary", actaHandler.HandleSummary)
	mux.HandleFunc("/api/summary/departments", actaHandler.HandleDepartmentSummaries)
	mux.HandleFunc("/api/export/csv", actaHandler.HandleExportCSV)
	mux.HandleFunc("/api/export", actaHandler.HandleExportFiles)

	// Metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	// Add health check endpoint
	mux.HandleFunc("/health", actaHandler.HandleHealth)

	// Start server
	log.Printf("Server starting on :%s...", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		log.Fatal(err)
	}
}
