package models

import (
	"fmt"
	"time"
)

// Audit states for a published acta.
const (
	AuditStatePublished   = "published"
	AuditStateUnpublished = "unpublished"
)

// Geography identifies where a polling station sits in the CNE hierarchy:
// department > municipality > zone > voting center.
type Geography struct {
	DepartmentCode   string `json:"department_code"`
	DepartmentName   string `json:"department_name"`
	MunicipalityCode string `json:"municipality_code"`
	MunicipalityName string `json:"municipality_name"`
	ZoneCode         string `json:"zone_code"`
	ZoneName         string `json:"zone_name"`
	CenterCode       string `json:"center_code"`
	CenterName       string `json:"center_name"`
}

// Audit mirrors the portal's per-acta review counters.
type Audit struct {
	State          string `json:"state"`
	Correct        int    `json:"correct"`
	Inconsistent   int    `json:"inconsistent"`
	InVerification int    `json:"in_verification"`
	PendingVisual  int    `json:"pending_visual"`
	Waiting        int    `json:"waiting"`
}

// Stats holds the tallies computed for one polling station.
type Stats struct {
	Census        int     `json:"census"`
	Signatures    int     `json:"signatures"`
	Participation float64 `json:"participation_pct"`
	ValidVotes    int     `json:"valid_votes"`
	BlankVotes    int     `json:"blank_votes"`
	NullVotes     int     `json:"null_votes"`
	TotalVotes    int     `json:"total_votes"`
}

// CandidateResult is one candidate's line on an acta.
type CandidateResult struct {
	PartyID       string `json:"party_id"`
	PartyIDInt    int    `json:"party_id_int"`
	PartyName     string `json:"party_name"`
	CandidateCode string `json:"candidate_code"`
	CandidateName string `json:"candidate_name"`
	Votes         int    `json:"votes"`
	ColorHex      string `json:"color_hex,omitempty"`
}

// Documents describes the scanned tally sheet paired with a record.
type Documents struct {
	HasScan   bool   `json:"has_scan"`
	ScanName  string `json:"scan_name,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
}

// Acta is the parsed result record for a single JRV (polling station).
type Acta struct {
	JRV          int               `json:"jrv"`
	ExtractedAt  time.Time         `json:"extracted_at"`
	ServerCutoff string            `json:"server_cutoff,omitempty"`
	Geography    Geography         `json:"geography"`
	Audit        Audit             `json:"audit"`
	Stats        Stats             `json:"stats"`
	Results      []CandidateResult `json:"results"`
	Documents    Documents         `json:"documents"`
}

// Validate ensures all required fields are present and valid
func (a *Acta) Validate() error {
	if a.JRV <= 0 {
		return fmt.Errorf("jrv number is required")
	}
	if a.Geography.DepartmentCode == "" {
		return fmt.Errorf("department code is required")
	}
	switch a.Audit.State {
	case AuditStatePublished, AuditStateUnpublished:
	default:
		return fmt.Errorf("invalid audit state: %s", a.Audit.State)
	}
	for i, r := range a.Results {
		if r.Votes < 0 {
			return fmt.Errorf("negative votes for result at index %d", i)
		}
	}
	if a.Stats.BlankVotes < 0 || a.Stats.NullVotes < 0 || a.Stats.ValidVotes < 0 {
		return fmt.Errorf("negative vote tallies")
	}
	return nil
}

// HasParsedCounts reports whether any vote data was parsed for this acta.
// Zero-turnout stations with recorded signatures still count as parsed.
func (a *Acta) HasParsedCounts() bool {
	if len(a.Results) > 0 {
		return true
	}
	if a.Stats.ValidVotes > 0 || a.Stats.BlankVotes > 0 || a.Stats.NullVotes > 0 {
		return true
	}
	return a.Stats.Signatures > 0
}

// ScanFileName returns the canonical local filename for a JRV's scanned acta.
func ScanFileName(jrv int) string {
	return fmt.Sprintf("HND_2025_JRV_%05d.pdf", jrv)
}
