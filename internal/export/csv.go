// Package export flattens stored records into CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"actas/internal/models"
)

// Summary CSV column set, one row per acta.
var summaryHeader = []string{
	"jrv",
	"department_code",
	"department",
	"municipality",
	"zone",
	"center",
	"state",
	"census",
	"signatures",
	"participation_pct",
	"valid_votes",
	"blank_votes",
	"null_votes",
	"total_votes",
	"has_scan",
	"scan_name",
}

// Long-form CSV column set, one row per candidate line.
var resultsHeader = []string{
	"jrv",
	"department_code",
	"party_id",
	"party_name",
	"candidate_code",
	"candidate_name",
	"votes",
}

// WriteSummary writes one row per acta to w.
func WriteSummary(w io.Writer, actas []models.Acta) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range actas {
		a := &actas[i]
		row := []string{
			strconv.Itoa(a.JRV),
			a.Geography.DepartmentCode,
			a.Geography.DepartmentName,
			a.Geography.MunicipalityName,
			a.Geography.ZoneName,
			a.Geography.CenterName,
			a.Audit.State,
			strconv.Itoa(a.Stats.Census),
			strconv.Itoa(a.Stats.Signatures),
			strconv.FormatFloat(a.Stats.Participation, 'f', 2, 64),
			strconv.Itoa(a.Stats.ValidVotes),
			strconv.Itoa(a.Stats.BlankVotes),
			strconv.Itoa(a.Stats.NullVotes),
			strconv.Itoa(a.Stats.TotalVotes),
			strconv.FormatBool(a.Documents.HasScan),
			a.Documents.ScanName,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row for jrv %d: %w", a.JRV, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteResults writes one row per candidate line to w.
func WriteResults(w io.Writer, actas []models.Acta) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range actas {
		a := &actas[i]
		for _, r := range a.Results {
			row := []string{
				strconv.Itoa(a.JRV),
				a.Geography.DepartmentCode,
				r.PartyID,
				r.PartyName,
				r.CandidateCode,
				r.CandidateName,
				strconv.Itoa(r.Votes),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write row for jrv %d: %w", a.JRV, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFiles writes both CSVs under dir and returns their paths.
func WriteFiles(dir string, actas []models.Acta) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	paths := []string{
		filepath.Join(dir, "actas.csv"),
		filepath.Join(dir, "results.csv"),
	}
	writers := []func(io.Writer, []models.Acta) error{WriteSummary, WriteResults}

	for i, path := range paths {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := writers[i](f, actas); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("failed to close %s: %w", path, err)
		}
	}

	return paths, nil
}
