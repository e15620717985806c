package models

import (
	"fmt"
	"time"
)

// AnomalyClass labels the two data-quality defects found in the dataset
type AnomalyClass string

const (
	// AnomalyMissingParse (class A): the scan contains data but no parsed
	// vote counts were extracted.
	AnomalyMissingParse AnomalyClass = "missing_parse"

	// AnomalyBlank (class B): both the parsed counts and the scan are blank.
	AnomalyBlank AnomalyClass = "blank"
)

// ValidateAnomalyClass checks if the anomaly class is valid
func ValidateAnomalyClass(class AnomalyClass) error {
	switch class {
	case AnomalyMissingParse, AnomalyBlank:
		return nil
	default:
		return fmt.Errorf("invalid anomaly class: %s", class)
	}
}

// Anomaly flags one incomplete record in the dataset.
type Anomaly struct {
	ID         string       `json:"id,omitempty"`
	JRV        int          `json:"jrv"`
	Class      AnomalyClass `json:"class"`
	Department string       `json:"department"`
	Detail     string       `json:"detail,omitempty"`
	DetectedAt time.Time    `json:"detected_at"`
}

// Validate ensures all required fields are present and valid
func (a *Anomaly) Validate() error {
	if a.JRV <= 0 {
		return fmt.Errorf("jrv number is required")
	}
	return ValidateAnomalyClass(a.Class)
}
