package extraction

import (
	"strings"
	"testing"
)

func TestRulingNormalize(t *testing.T) {
	ruling := Ruling{
		NumeroProcesso: "  0001234-56.2025.5.02.0001  ",
		Partes:         Parties{Reclamante: " Maria da Silva ", Reclamada: " Empresa XYZ Ltda "},
		Pedidos:        []string{" horas extras ", "", "  ", "verbas rescisórias"},
		FatosRelevantes: []string{
			"  contrato encerrado sem aviso prévio  ",
			"",
		},
		PeriodoContratual: ContractPeriod{Inicio: " 2023-01-10 ", Fim: " 2024-06-30 "},
		ValorCausa:        " R$ 50.000,00 ",
	}
	ruling.Normalize()

	if ruling.NumeroProcesso != "0001234-56.2025.5.02.0001" {
		t.Fatalf("numero_processo = %q", ruling.NumeroProcesso)
	}
	if len(ruling.Pedidos) != 2 || ruling.Pedidos[0] != "horas extras" {
		t.Fatalf("pedidos = %v", ruling.Pedidos)
	}
	if len(ruling.FatosRelevantes) != 1 {
		t.Fatalf("fatos = %v", ruling.FatosRelevantes)
	}
	if ruling.ValorCausa != "R$ 50.000,00" {
		t.Fatalf("valor_causa = %q", ruling.ValorCausa)
	}
}

func TestRulingValidate(t *testing.T) {
	valid := Ruling{
		NumeroProcesso: "0001234-56.2025.5.02.0001",
		Partes:         Parties{Reclamante: "Maria da Silva", Reclamada: "Empresa XYZ Ltda"},
		Pedidos:        []string{"horas extras"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid ruling rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Ruling)
	}{
		{"missing process number", func(r *Ruling) { r.NumeroProcesso = "" }},
		{"missing claimant", func(r *Ruling) { r.Partes.Reclamante = "" }},
		{"missing defendant", func(r *Ruling) { r.Partes.Reclamada = "" }},
		{"no claims", func(r *Ruling) { r.Pedidos = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ruling := valid
			ruling.Pedidos = append([]string(nil), valid.Pedidos...)
			tc.mutate(&ruling)
			if err := ruling.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRulingEncodeDecode(t *testing.T) {
	ruling := Ruling{
		NumeroProcesso: "0001234-56.2025.5.02.0001",
		Partes:         Parties{Reclamante: "Maria da Silva", Reclamada: "Empresa XYZ Ltda"},
		Pedidos:        []string{"horas extras", "dano moral"},
		ValorCausa:     "R$ 50.000,00",
	}
	payload, err := ruling.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(payload, `"numero_processo"`) {
		t.Fatalf("payload missing Portuguese field names: %s", payload)
	}

	decoded, err := RulingFromJSON(payload)
	if err != nil {
		t.Fatalf("RulingFromJSON: %v", err)
	}
	if decoded.NumeroProcesso != ruling.NumeroProcesso || len(decoded.Pedidos) != 2 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestRulingFromJSONRejectsEmptyAndMalformed(t *testing.T) {
	if _, err := RulingFromJSON("   "); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := RulingFromJSON("{not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestBuildUserPromptCarriesBothInputs(t *testing.T) {
	prompt := BuildUserPrompt("texto da petição", "texto da transcrição")
	if !strings.Contains(prompt, "texto da petição") || !strings.Contains(prompt, "texto da transcrição") {
		t.Fatal("prompt must embed both inputs")
	}
	if strings.Index(prompt, "PETIÇÃO INICIAL") > strings.Index(prompt, "TRANSCRIÇÃO DA AUDIÊNCIA") {
		t.Fatal("petition section must precede transcript section")
	}
}
