package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"actas/internal/formatter"
	"actas/internal/ingest"
	"actas/internal/models"
	"actas/internal/quality"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore satisfies the store interfaces of handlers, formatter, ingest
// and quality, so the full handler wiring runs against in-memory state.
type fakeStore struct {
	mu        sync.Mutex
	actas     map[int]*models.Acta
	anomalies []models.Anomaly
	failJRV   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{actas: make(map[int]*models.Acta)}
}

func (f *fakeStore) SaveActa(acta *models.Acta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failJRV != 0 && acta.JRV == f.failJRV {
		return fmt.Errorf("disk full")
	}
	copied := *acta
	f.actas[acta.JRV] = &copied
	return nil
}

func (f *fakeStore) UpdateActa(jrv int, acta *models.Acta) error {
	f.mu.Lock()
	_, ok := f.actas[jrv]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("failed to find acta for jrv %d", jrv)
	}
	acta.JRV = jrv
	return f.SaveActa(acta)
}

func (f *fakeStore) GetActa(jrv int) (*models.Acta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acta, ok := f.actas[jrv]
	if !ok {
		return nil, fmt.Errorf("failed to find acta for jrv %d", jrv)
	}
	return acta, nil
}

func (f *fakeStore) ListActas(departmentCode string) ([]models.Acta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	jrvs := make([]int, 0, len(f.actas))
	for jrv := range f.actas {
		jrvs = append(jrvs, jrv)
	}
	sort.Ints(jrvs)
	actas := make([]models.Acta, 0, len(jrvs))
	for _, jrv := range jrvs {
		if departmentCode != "" && f.actas[jrv].Geography.DepartmentCode != departmentCode {
			continue
		}
		actas = append(actas, *f.actas[jrv])
	}
	return actas, nil
}

func (f *fakeStore) CountActas() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.actas), nil
}

func (f *fakeStore) DeleteActa(jrv int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.actas[jrv]; !ok {
		return fmt.Errorf("failed to find acta for jrv %d", jrv)
	}
	delete(f.actas, jrv)
	return nil
}

func (f *fakeStore) ListAnomalies(class models.AnomalyClass) ([]models.Anomaly, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Anomaly, 0, len(f.anomalies))
	for _, a := range f.anomalies {
		if class != "" && a.Class != class {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) ReplaceAnomalies(anomalies []models.Anomaly) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.anomalies = anomalies
	return nil
}

func (f *fakeStore) ActaExists(jrv int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.actas[jrv]
	return ok
}

func newTestHandler(store *fakeStore, snapshotDir, exportDir string) *ActaHandler {
	actaFormatter := formatter.New(store)
	manager := ingest.NewManager(store, actaFormatter, 1)
	detector := quality.NewDetector(store)
	return NewActaHandler(store, manager, detector, snapshotDir, exportDir)
}

func sampleActa(jrv int) models.Acta {
	return models.Acta{
		JRV: jrv,
		Geography: models.Geography{
			DepartmentCode: "05",
			DepartmentName: "Cortes",
		},
		Audit: models.Audit{State: models.AuditStatePublished},
		Stats: models.Stats{ValidVotes: 100, BlankVotes: 2, NullVotes: 3, TotalVotes: 105},
	}
}

func rawBundle(jrv int) string {
	return fmt.Sprintf(`{
		"jrv": %d,
		"geography": {"department_code": "01", "zone_code": "01"},
		"actas_validas": {"publicadas": 1},
		"sufragantes": {"sufragantes": 200, "cantidadDeFirmas": 150, "participacion": 75.0},
		"resultados": {"candidatos": [{"parpo_id": "01", "cddto_nombres": "Candidate A", "votos": 140}]},
		"blancos": [{"votos": 5}],
		"nulos": [{"votos": 5}]
	}`, jrv)
}

func TestHandlersRejectWrongMethods(t *testing.T) {
	h := newTestHandler(newFakeStore(), "", t.TempDir())

	cases := []struct {
		name    string
		handler http.HandlerFunc
		method  string
	}{
		{"save", h.HandleSaveActa, http.MethodGet},
		{"get", h.HandleGetActa, http.MethodPost},
		{"update", h.HandleUpdateActa, http.MethodPost},
		{"delete", h.HandleDeleteActa, http.MethodGet},
		{"bulk", h.HandleBulkSaveActas, http.MethodGet},
		{"ingest", h.HandleIngest, http.MethodGet},
		{"quality", h.HandleQualityReport, http.MethodPost},
		{"anomalies", h.HandleGetAnomalies, http.MethodPost},
		{"summary", h.HandleSummary, http.MethodPost},
		{"departments", h.HandleDepartmentSummaries, http.MethodPost},
		{"export_csv", h.HandleExportCSV, http.MethodPost},
		{"export_files", h.HandleExportFiles, http.MethodGet},
		{"health", h.HandleHealth, http.MethodPost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/", nil)
			rec := httptest.NewRecorder()
			tc.handler(rec, req)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestSaveAndGetActa(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, "", t.TempDir())

	body, err := json.Marshal(sampleActa(7))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.HandleSaveActa(rec, httptest.NewRequest(http.MethodPost, "/api/actas", strings.NewReader(string(body))))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, store.ActaExists(7))

	req := httptest.NewRequest(http.MethodGet, "/api/actas/7", nil)
	req.SetPathValue("jrv", "7")
	rec = httptest.NewRecorder()
	h.HandleGetActa(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Acta
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 7, got.JRV)
	assert.Equal(t, "Cortes", got.Geography.DepartmentName)
}

func TestGetActaErrors(t *testing.T) {
	h := newTestHandler(newFakeStore(), "", t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/actas/abc", nil)
	req.SetPathValue("jrv", "abc")
	rec := httptest.NewRecorder()
	h.HandleGetActa(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/actas/404", nil)
	req.SetPathValue("jrv", "404")
	rec = httptest.NewRecorder()
	h.HandleGetActa(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListActasByDepartment(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, "", t.TempDir())

	require.NoError(t, store.SaveActa(&models.Acta{JRV: 1, Geography: models.Geography{DepartmentCode: "05"}}))
	require.NoError(t, store.SaveActa(&models.Acta{JRV: 2, Geography: models.Geography{DepartmentCode: "08"}}))

	rec := httptest.NewRecorder()
	h.HandleGetActa(rec, httptest.NewRequest(http.MethodGet, "/api/actas?department=05", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Acta
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].JRV)
}

func TestUpdateActa(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, "", t.TempDir())
	require.NoError(t, store.SaveActa(&models.Acta{JRV: 7, Geography: models.Geography{DepartmentCode: "05"}, Audit: models.Audit{State: models.AuditStateUnpublished}}))

	updated := sampleActa(7)
	updated.Stats.ValidVotes = 250
	body, err := json.Marshal(updated)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/actas/7", strings.NewReader(string(body)))
	req.SetPathValue("jrv", "7")
	rec := httptest.NewRecorder()
	h.HandleUpdateActa(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	saved, err := store.GetActa(7)
	require.NoError(t, err)
	assert.Equal(t, 250, saved.Stats.ValidVotes)
	assert.Equal(t, models.AuditStatePublished, saved.Audit.State)
}

func TestUpdateActaMissingRecord(t *testing.T) {
	h := newTestHandler(newFakeStore(), "", t.TempDir())

	body, err := json.Marshal(sampleActa(99))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/actas/99", strings.NewReader(string(body)))
	req.SetPathValue("jrv", "99")
	rec := httptest.NewRecorder()
	h.HandleUpdateActa(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "update must not create records")
}

func TestBulkSaveActas(t *testing.T) {
	store := newFakeStore()
	store.failJRV = 2
	h := newTestHandler(store, "", t.TempDir())

	actas := []models.Acta{sampleActa(1), sampleActa(2), sampleActa(3)}
	body, err := json.Marshal(actas)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.HandleBulkSaveActas(rec, httptest.NewRequest(http.MethodPost, "/api/actas/bulk", strings.NewReader(string(body))))
	require.Equal(t, http.StatusCreated, rec.Code)

	var response struct {
		TotalSubmitted int      `json:"total_submitted"`
		SavedCount     int      `json:"saved_count"`
		Errors         []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 3, response.TotalSubmitted)
	assert.Equal(t, 2, response.SavedCount)
	require.Len(t, response.Errors, 1)
	assert.Contains(t, response.Errors[0], "index 1")
}

func TestBulkSaveRejectsInvalidRecord(t *testing.T) {
	h := newTestHandler(newFakeStore(), "", t.TempDir())

	invalid := sampleActa(2)
	invalid.Geography.DepartmentCode = ""
	body, err := json.Marshal([]models.Acta{sampleActa(1), invalid})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.HandleBulkSaveActas(rec, httptest.NewRequest(http.MethodPost, "/api/actas/bulk", strings.NewReader(string(body))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "index 1")
}

func TestGetAnomaliesClassFilter(t *testing.T) {
	store := newFakeStore()
	store.anomalies = []models.Anomaly{
		{JRV: 1, Class: models.AnomalyMissingParse, DetectedAt: time.Now()},
		{JRV: 2, Class: models.AnomalyBlank, DetectedAt: time.Now()},
	}
	h := newTestHandler(store, "", t.TempDir())

	rec := httptest.NewRecorder()
	h.HandleGetAnomalies(rec, httptest.NewRequest(http.MethodGet, "/api/anomalies?class=blank", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Anomaly
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].JRV)

	rec = httptest.NewRecorder()
	h.HandleGetAnomalies(rec, httptest.NewRequest(http.MethodGet, "/api/anomalies?class=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQualityReportSweepsStore(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, "", t.TempDir())

	require.NoError(t, store.SaveActa(&models.Acta{JRV: 1, Geography: models.Geography{DepartmentCode: "05"}, Stats: models.Stats{ValidVotes: 10}}))
	require.NoError(t, store.SaveActa(&models.Acta{
		JRV:       2,
		Geography: models.Geography{DepartmentCode: "05"},
		Documents: models.Documents{HasScan: true},
	}))

	rec := httptest.NewRecorder()
	h.HandleQualityReport(rec, httptest.NewRequest(http.MethodGet, "/api/quality/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report quality.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 2, report.TotalActas)
	assert.Equal(t, 1, report.Anomalies)

	require.Len(t, store.anomalies, 1)
	assert.Equal(t, models.AnomalyMissingParse, store.anomalies[0].Class)
}

func TestIngestDefaultsToSnapshotDir(t *testing.T) {
	snapshotDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(snapshotDir, "bundle.json"), []byte(rawBundle(31)), 0644))

	store := newFakeStore()
	h := newTestHandler(store, snapshotDir, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/snapshot", nil)
	req.SetPathValue("method", "snapshot")
	rec := httptest.NewRecorder()
	h.HandleIngest(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary ingest.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 1, summary.Processed)
	_, err := time.ParseDuration(summary.Duration)
	require.NoError(t, err)
	assert.True(t, store.ActaExists(31))
}

func TestIngestZipStillRequiresPath(t *testing.T) {
	h := newTestHandler(newFakeStore(), t.TempDir(), t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/zip", strings.NewReader(`{}`))
	req.SetPathValue("method", "zip")
	rec := httptest.NewRecorder()
	h.HandleIngest(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.SaveActa(&models.Acta{JRV: 1}))
	require.NoError(t, store.SaveActa(&models.Acta{JRV: 2}))
	h := newTestHandler(store, "", t.TempDir())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Status string `json:"status"`
		Actas  int    `json:"actas"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 2, status.Actas)
}

func TestSummaryTotals(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, "", t.TempDir())

	a := sampleActa(1)
	b := sampleActa(2)
	b.Stats.ValidVotes = 50
	b.Stats.TotalVotes = 55
	require.NoError(t, store.SaveActa(&a))
	require.NoError(t, store.SaveActa(&b))

	rec := httptest.NewRecorder()
	h.HandleSummary(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		TotalActas int `json:"total_actas"`
		ValidVotes int `json:"valid_votes"`
		TotalVotes int `json:"total_votes"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 2, summary.TotalActas)
	assert.Equal(t, 150, summary.ValidVotes)
	assert.Equal(t, 160, summary.TotalVotes)
}

func TestExportCSV(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, "", t.TempDir())

	a := sampleActa(1)
	require.NoError(t, store.SaveActa(&a))

	rec := httptest.NewRecorder()
	h.HandleExportCSV(rec, httptest.NewRequest(http.MethodGet, "/api/export/csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "jrv")
}
