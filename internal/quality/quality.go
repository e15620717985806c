// Package quality flags incomplete records and builds dataset reports.
//
// The dataset carries two classes of incomplete record: stations whose scan
// holds data that was never parsed (class A), and stations where both the
// parsed counts and the scan are blank (class B).
package quality

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"actas/internal/metrics"
	"actas/internal/models"
)

// Inspect classifies one record. ok is true when the record is complete.
func Inspect(acta *models.Acta) (models.AnomalyClass, bool) {
	if acta.HasParsedCounts() {
		return "", true
	}
	if acta.Documents.HasScan {
		return models.AnomalyMissingParse, false
	}
	return models.AnomalyBlank, false
}

// DepartmentSummary is one department's rollup in a report.
type DepartmentSummary struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Actas      int    `json:"actas"`
	ValidVotes int    `json:"valid_votes"`
	BlankVotes int    `json:"blank_votes"`
	NullVotes  int    `json:"null_votes"`
	TotalVotes int    `json:"total_votes"`
	Anomalies  int    `json:"anomalies"`
}

// Report summarizes a full quality sweep of the stored dataset.
type Report struct {
	GeneratedAt  time.Time                   `json:"generated_at"`
	TotalActas   int                         `json:"total_actas"`
	Anomalies    int                         `json:"anomalies"`
	ByClass      map[models.AnomalyClass]int `json:"by_class"`
	Completeness float64                     `json:"completeness_pct"`
	Departments  []DepartmentSummary         `json:"departments"`
}

// BuildReport sweeps the given records and returns the report together with
// the anomaly flags to store.
func BuildReport(actas []models.Acta) (*Report, []models.Anomaly) {
	now := time.Now().UTC()
	report := &Report{
		GeneratedAt: now,
		TotalActas:  len(actas),
		ByClass:     make(map[models.AnomalyClass]int),
	}

	depts := make(map[string]*DepartmentSummary)
	var anomalies []models.Anomaly

	for i := range actas {
		acta := &actas[i]

		dept, ok := depts[acta.Geography.DepartmentCode]
		if !ok {
			dept = &DepartmentSummary{
				Code: acta.Geography.DepartmentCode,
				Name: acta.Geography.DepartmentName,
			}
			depts[acta.Geography.DepartmentCode] = dept
		}
		dept.Actas++
		dept.ValidVotes += acta.Stats.ValidVotes
		dept.BlankVotes += acta.Stats.BlankVotes
		dept.NullVotes += acta.Stats.NullVotes
		dept.TotalVotes += acta.Stats.TotalVotes

		class, complete := Inspect(acta)
		if complete {
			continue
		}

		dept.Anomalies++
		report.ByClass[class]++
		anomalies = append(anomalies, models.Anomaly{
			JRV:        acta.JRV,
			Class:      class,
			Department: acta.Geography.DepartmentName,
			Detail:     anomalyDetail(class),
			DetectedAt: now,
		})
	}

	report.Anomalies = len(anomalies)
	if report.TotalActas > 0 {
		report.Completeness = 100 * float64(report.TotalActas-report.Anomalies) / float64(report.TotalActas)
	}

	for _, dept := range depts {
		report.Departments = append(report.Departments, *dept)
	}
	sort.Slice(report.Departments, func(i, j int) bool {
		return report.Departments[i].Code < report.Departments[j].Code
	})

	return report, anomalies
}

func anomalyDetail(class models.AnomalyClass) string {
	switch class {
	case models.AnomalyMissingParse:
		return "scan contains data but no vote counts were parsed"
	case models.AnomalyBlank:
		return "both parsed counts and scan are blank"
	default:
		return ""
	}
}

// AnomalyStore is the subset of the storage layer the detector needs.
type AnomalyStore interface {
	ListActas(departmentCode string) ([]models.Acta, error)
	ReplaceAnomalies(anomalies []models.Anomaly) error
}

// Detector runs quality sweeps against the store.
type Detector struct {
	store AnomalyStore
}

// NewDetector creates a new Detector
func NewDetector(store AnomalyStore) *Detector {
	return &Detector{store: store}
}

// Run sweeps every stored record, rewrites the anomaly flags and returns
// the report.
func (d *Detector) Run(ctx context.Context) (*Report, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	actas, err := d.store.ListActas("")
	if err != nil {
		return nil, fmt.Errorf("failed to load actas: %w", err)
	}

	report, anomalies := BuildReport(actas)

	if err := d.store.ReplaceAnomalies(anomalies); err != nil {
		return nil, fmt.Errorf("failed to store anomalies: %w", err)
	}

	metrics.AnomaliesDetected.Set(float64(report.Anomalies))
	log.Printf("Quality sweep: %d actas, %d anomalies (%.2f%% complete)",
		report.TotalActas, report.Anomalies, report.Completeness)
	return report, nil
}
