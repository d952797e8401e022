package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parties identifies the claimant and the defendant of a labor claim.
type Parties struct {
	Reclamante string `json:"reclamante"`
	Reclamada  string `json:"reclamada"`
}

// ContractPeriod bounds the employment relationship under dispute.
type ContractPeriod struct {
	Inicio string `json:"inicio"`
	Fim    string `json:"fim"`
}

// Ruling is the structured case data extracted from the initial petition and
// the hearing transcript. Field names follow the Brazilian labor-court
// vocabulary used downstream in document generation.
type Ruling struct {
	NumeroProcesso    string         `json:"numero_processo"`
	Partes            Parties        `json:"partes"`
	Pedidos           []string       `json:"pedidos"`
	FatosRelevantes   []string       `json:"fatos_relevantes"`
	PeriodoContratual ContractPeriod `json:"periodo_contratual"`
	ValorCausa        string         `json:"valor_causa"`
}

// Normalize trims whitespace and drops empty list entries.
func (r *Ruling) Normalize() {
	r.NumeroProcesso = strings.TrimSpace(r.NumeroProcesso)
	r.Partes.Reclamante = strings.TrimSpace(r.Partes.Reclamante)
	r.Partes.Reclamada = strings.TrimSpace(r.Partes.Reclamada)
	r.Pedidos = trimNonEmpty(r.Pedidos)
	r.FatosRelevantes = trimNonEmpty(r.FatosRelevantes)
	r.PeriodoContratual.Inicio = strings.TrimSpace(r.PeriodoContratual.Inicio)
	r.PeriodoContratual.Fim = strings.TrimSpace(r.PeriodoContratual.Fim)
	r.ValorCausa = strings.TrimSpace(r.ValorCausa)
}

// Validate reports whether the extraction carries the minimum data needed to
// draft a sentence.
func (r *Ruling) Validate() error {
	if r.NumeroProcesso == "" {
		return fmt.Errorf("extraction missing numero_processo")
	}
	if r.Partes.Reclamante == "" || r.Partes.Reclamada == "" {
		return fmt.Errorf("extraction missing parties (reclamante=%q, reclamada=%q)", r.Partes.Reclamante, r.Partes.Reclamada)
	}
	if len(r.Pedidos) == 0 {
		return fmt.Errorf("extraction carries no claims")
	}
	return nil
}

// Encode serializes the ruling as compact JSON for persistence.
func (r *Ruling) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode ruling: %w", err)
	}
	return string(data), nil
}

// RulingFromJSON decodes a persisted extraction payload.
func RulingFromJSON(payload string) (*Ruling, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("extraction payload is empty")
	}
	var ruling Ruling
	if err := json.Unmarshal([]byte(payload), &ruling); err != nil {
		return nil, fmt.Errorf("decode ruling: %w", err)
	}
	ruling.Normalize()
	return &ruling, nil
}

func trimNonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
