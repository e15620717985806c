package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"actas/internal/export"
	"actas/internal/ingest"
	"actas/internal/models"
	"actas/internal/quality"
)

// Store is the subset of the storage layer the handlers need.
type Store interface {
	SaveActa(acta *models.Acta) error
	UpdateActa(jrv int, acta *models.Acta) error
	GetActa(jrv int) (*models.Acta, error)
	ListActas(departmentCode string) ([]models.Acta, error)
	CountActas() (int, error)
	DeleteActa(jrv int) error
	ListAnomalies(class models.AnomalyClass) ([]models.Anomaly, error)
}

type ActaHandler struct {
	store       Store
	manager     *ingest.Manager
	detector    *quality.Detector
	snapshotDir string
	exportDir   string
}

func NewActaHandler(store Store, manager *ingest.Manager, detector *quality.Detector, snapshotDir, exportDir string) *ActaHandler {
	return &ActaHandler{
		store:       store,
		manager:     manager,
		detector:    detector,
		snapshotDir: snapshotDir,
		exportDir:   exportDir,
	}
}

func (h *ActaHandler) HandleSaveActa(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var acta models.Acta
	if err := json.NewDecoder(r.Body).Decode(&acta); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := acta.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.SaveActa(&acta); err != nil {
		http.Error(w, "Error saving acta", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Acta saved successfully",
	})
}

func (h *ActaHandler) HandleGetActa(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jrvParam := r.PathValue("jrv")
	if jrvParam == "" {
		actas, err := h.store.ListActas(r.URL.Query().Get("department"))
		if err != nil {
			http.Error(w, "Error fetching actas", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(actas)
		return
	}

	jrv, err := strconv.Atoi(jrvParam)
	if err != nil {
		http.Error(w, "Invalid JRV number", http.StatusBadRequest)
		return
	}

	acta, err := h.store.GetActa(jrv)
	if err != nil {
		http.Error(w, "Acta not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(acta)
}

func (h *ActaHandler) HandleUpdateActa(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jrv, err := strconv.Atoi(r.PathValue("jrv"))
	if err != nil {
		http.Error(w, "Invalid JRV number", http.StatusBadRequest)
		return
	}

	var acta models.Acta
	if err := json.NewDecoder(r.Body).Decode(&acta); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	acta.JRV = jrv

	if err := acta.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateActa(jrv, &acta); err != nil {
		http.Error(w, "Error updating acta", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Acta updated successfully",
	})
}

func (h *ActaHandler) HandleDeleteActa(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jrv, err := strconv.Atoi(r.PathValue("jrv"))
	if err != nil {
		http.Error(w, "Invalid JRV number", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteActa(jrv); err != nil {
		http.Error(w, "Error deleting acta", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Acta deleted successfully",
	})
}

func (h *ActaHandler) HandleBulkSaveActas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var actas []models.Acta
	if err := json.NewDecoder(r.Body).Decode(&actas); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// Validate all records before saving
	for i := range actas {
		if err := actas[i].Validate(); err != nil {
			http.Error(w, fmt.Sprintf("Invalid acta at index %d: %s", i, err.Error()), http.StatusBadRequest)
			return
		}
	}

	var savedCount int
	var errors []string
	for i := range actas {
		if err := h.store.SaveActa(&actas[i]); err != nil {
			errors = append(errors, fmt.Sprintf("Failed to save acta at index %d: %s", i, err.Error()))
			continue
		}
		savedCount++
	}

	response := map[string]interface{}{
		"total_submitted": len(actas),
		"saved_count":     savedCount,
	}
	if len(errors) > 0 {
		response["errors"] = errors
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *ActaHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	method := r.PathValue("method")
	if method == "" {
		http.Error(w, "Ingest method is required", http.StatusBadRequest)
		return
	}

	var request struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if request.Path == "" {
		// Snapshot ingests default to the configured snapshot directory.
		if method != "snapshot" || h.snapshotDir == "" {
			http.Error(w, "Path is required", http.StatusBadRequest)
			return
		}
		request.Path = h.snapshotDir
	}

	summary, err := h.manager.IngestPath(r.Context(), method, request.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("Ingest failed: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(summary)
}

func (h *ActaHandler) HandleQualityReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.detector.Run(r.Context())
	if err != nil {
		http.Error(w, "Error running quality sweep", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(report)
}

func (h *ActaHandler) HandleGetAnomalies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	class := models.AnomalyClass(r.URL.Query().Get("class"))
	if class != "" {
		if err := models.ValidateAnomalyClass(class); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	anomalies, err := h.store.ListAnomalies(class)
	if err != nil {
		http.Error(w, "Error fetching anomalies", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(anomalies)
}

func (h *ActaHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actas, err := h.store.ListActas("")
	if err != nil {
		http.Error(w, "Error fetching actas", http.StatusInternalServerError)
		return
	}

	summary := struct {
		TotalActas int `json:"total_actas"`
		Census     int `json:"census"`
		ValidVotes int `json:"valid_votes"`
		BlankVotes int `json:"blank_votes"`
		NullVotes  int `json:"null_votes"`
		TotalVotes int `json:"total_votes"`
	}{
		TotalActas: len(actas),
	}
	for i := range actas {
		summary.Census += actas[i].Stats.Census
		summary.ValidVotes += actas[i].Stats.ValidVotes
		summary.BlankVotes += actas[i].Stats.BlankVotes
		summary.NullVotes += actas[i].Stats.NullVotes
		summary.TotalVotes += actas[i].Stats.TotalVotes
	}

	json.NewEncoder(w).Encode(summary)
}

func (h *ActaHandler) HandleDepartmentSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actas, err := h.store.ListActas("")
	if err != nil {
		http.Error(w, "Error fetching actas", http.StatusInternalServerError)
		return
	}

	report, _ := quality.BuildReport(actas)
	json.NewEncoder(w).Encode(report.Departments)
}

func (h *ActaHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actas, err := h.store.ListActas(r.URL.Query().Get("department"))
	if err != nil {
		http.Error(w, "Error fetching actas", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="actas.csv"`)
	if err := export.WriteSummary(w, actas); err != nil {
		http.Error(w, "Error writing CSV", http.StatusInternalServerError)
		return
	}
}

func (h *ActaHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.store.CountActas()
	if err != nil {
		http.Error(w, "Store unavailable", http.StatusServiceUnavailable)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"actas":  count,
	})
}

func (h *ActaHandler) HandleExportFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actas, err := h.store.ListActas("")
	if err != nil {
		http.Error(w, "Error fetching actas", http.StatusInternalServerError)
		return
	}

	paths, err := export.WriteFiles(h.exportDir, actas)
	if err != nil {
		http.Error(w, "Error writing export files", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"files": paths,
		"rows":  len(actas),
	})
}
