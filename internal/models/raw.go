package models

import (
	"encoding/json"
	"fmt"
)

// RawActa is one archived snapshot bundle for a single JRV: the five raw
// portal payloads the results site served for that station, plus the
// geography the navigation tree resolved for it.
type RawActa struct {
	JRV       int       `json:"jrv"`
	Geography Geography `json:"geography"`
	ScanURL   string    `json:"scan_url,omitempty"`
	ScanName  string    `json:"scan_name,omitempty"`

	// Raw portal responses, kept verbatim. Any of them may be null when the
	// portal returned no content for the station.
	Validas     json.RawMessage `json:"actas_validas,omitempty"`
	Sufragantes json.RawMessage `json:"sufragantes,omitempty"`
	Resultados  json.RawMessage `json:"resultados,omitempty"`
	Blancos     json.RawMessage `json:"blancos,omitempty"`
	Nulos       json.RawMessage `json:"nulos,omitempty"`
}

// Validate ensures the bundle identifies a station.
func (r *RawActa) Validate() error {
	if r.JRV <= 0 {
		return fmt.Errorf("jrv number is required")
	}
	return nil
}

// ValidasPayload is the portal's acta-review response.
type ValidasPayload struct {
	Published      int `json:"publicadas"`
	Correct        int `json:"correctas"`
	Inconsistent   int `json:"inconsistencias"`
	InVerification int `json:"verificacion"`
	PendingVisual  int `json:"pendientesVerificacionVisual"`
	Waiting        int `json:"espera"`
}

// SufragantesPayload is the portal's turnout response.
type SufragantesPayload struct {
	Census        int     `json:"sufragantes"`
	Signatures    int     `json:"cantidadDeFirmas"`
	Participation float64 `json:"participacion"`
}

// ResultadosPayload is the portal's candidate results response.
type ResultadosPayload struct {
	Cutoff     string             `json:"fecha_corte"`
	Candidates []CandidatePayload `json:"candidatos"`
}

// CandidatePayload is one candidate line in a ResultadosPayload.
type CandidatePayload struct {
	PartyID       string `json:"parpo_id"`
	PartyIDInt    int    `json:"parpo_id_int"`
	PartyName     string `json:"parpo_nombre"`
	PartyColor    string `json:"parpo_color"`
	PartyLogoURL  string `json:"parpo_link_logo"`
	CandidateCode string `json:"cddto_codigo"`
	CandidateName string `json:"cddto_nombres"`
	LogoURL       string `json:"cddto_link_logo"`
	Votes         int    `json:"votos"`
}
