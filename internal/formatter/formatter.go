// Package formatter assembles parsed acta records from raw portal payloads.
package formatter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"actas/internal/models"
)

// ActaSaver persists assembled records.
type ActaSaver interface {
	SaveActa(acta *models.Acta) error
}

// ActaFormatter builds and stores acta records from raw snapshot bundles.
type ActaFormatter struct {
	store ActaSaver
}

// New creates a new ActaFormatter
func New(store ActaSaver) *ActaFormatter {
	return &ActaFormatter{store: store}
}

// BuildActa assembles a parsed record from a raw snapshot bundle. Missing or
// null payloads produce zero values rather than errors: an empty acta is a
// data-quality fact the quality sweep reports on, not an ingest failure.
func BuildActa(raw *models.RawActa) (*models.Acta, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	var validas models.ValidasPayload
	if len(raw.Validas) > 0 {
		if err := json.Unmarshal(raw.Validas, &validas); err != nil {
			return nil, fmt.Errorf("failed to decode actas-validas payload: %w", err)
		}
	}

	var sufragantes models.SufragantesPayload
	if len(raw.Sufragantes) > 0 {
		if err := json.Unmarshal(raw.Sufragantes, &sufragantes); err != nil {
			return nil, fmt.Errorf("failed to decode sufragantes payload: %w", err)
		}
	}

	var resultados models.ResultadosPayload
	if len(raw.Resultados) > 0 {
		if err := json.Unmarshal(raw.Resultados, &resultados); err != nil {
			return nil, fmt.Errorf("failed to decode resultados payload: %w", err)
		}
	}

	state := models.AuditStateUnpublished
	if validas.Published == 1 {
		state = models.AuditStatePublished
	}

	results := make([]models.CandidateResult, 0, len(resultados.Candidates))
	validVotes := 0
	for _, cand := range resultados.Candidates {
		results = append(results, models.CandidateResult{
			PartyID:       cand.PartyID,
			PartyIDInt:    cand.PartyIDInt,
			PartyName:     cand.PartyName,
			CandidateCode: cand.CandidateCode,
			CandidateName: cand.CandidateName,
			Votes:         cand.Votes,
			ColorHex:      cand.PartyColor,
		})
		validVotes += cand.Votes
	}

	blankVotes := ExtractVotes(raw.Blancos)
	nullVotes := ExtractVotes(raw.Nulos)

	geo := raw.Geography
	if geo.DepartmentName == "" {
		geo.DepartmentName = models.DepartmentName(geo.DepartmentCode)
	}
	if geo.ZoneName == "" {
		geo.ZoneName = models.DefaultZoneName(geo.ZoneCode)
	}

	acta := &models.Acta{
		JRV:          raw.JRV,
		ExtractedAt:  time.Now().UTC(),
		ServerCutoff: resultados.Cutoff,
		Geography:    geo,
		Audit: models.Audit{
			State:          state,
			Correct:        validas.Correct,
			Inconsistent:   validas.Inconsistent,
			InVerification: validas.InVerification,
			PendingVisual:  validas.PendingVisual,
			Waiting:        validas.Waiting,
		},
		Stats: models.Stats{
			Census:        sufragantes.Census,
			Signatures:    sufragantes.Signatures,
			Participation: sufragantes.Participation,
			ValidVotes:    validVotes,
			BlankVotes:    blankVotes,
			NullVotes:     nullVotes,
			TotalVotes:    validVotes + blankVotes + nullVotes,
		},
		Results:   results,
		Documents: buildDocuments(raw),
	}

	return acta, nil
}

func buildDocuments(raw *models.RawActa) models.Documents {
	docs := models.Documents{}
	if raw.ScanName != "" {
		docs.HasScan = true
		docs.ScanName = raw.ScanName
	} else if raw.ScanURL != "" {
		docs.HasScan = true
		docs.ScanName = models.ScanFileName(raw.JRV)
	}
	if raw.ScanURL != "" {
		// Strip the signed-access token; the bare URL identifies the source.
		docs.SourceURL, _, _ = strings.Cut(raw.ScanURL, "?")
	}
	return docs
}

// ProcessRaw assembles, validates and stores a single raw bundle.
func (f *ActaFormatter) ProcessRaw(ctx context.Context, raw *models.RawActa) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	acta, err := BuildActa(raw)
	if err != nil {
		return fmt.Errorf("failed to build acta for jrv %d: %w", raw.JRV, err)
	}

	if err := acta.Validate(); err != nil {
		return fmt.Errorf("invalid acta for jrv %d: %w", raw.JRV, err)
	}

	if err := f.store.SaveActa(acta); err != nil {
		return fmt.Errorf("failed to save acta for jrv %d: %w", raw.JRV, err)
	}

	log.Printf("OK JRV %d", raw.JRV)
	return nil
}
