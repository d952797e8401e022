package docgen

import (
	"strings"
	"testing"
)

func TestFormatPartyName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"MARIA DA SILVA", "Maria Da Silva"},
		{"empresa xyz ltda", "Empresa Xyz Ltda"},
		{"  João   Pereira  ", "João Pereira"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FormatPartyName(tc.in); got != tc.want {
			t.Fatalf("FormatPartyName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderAssemblesAllSections(t *testing.T) {
	document, err := Render(Sentence{
		NumeroProcesso: "0001234-56.2025.5.02.0001",
		Reclamante:     "Maria Da Silva",
		Reclamada:      "Empresa Xyz Ltda",
		Relatorio:      "Trata-se de reclamação trabalhista.",
		Fundamentacao:  "Os pedidos procedem em parte.",
		Dispositivo:    "Julgo procedente em parte.",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, fragment := range []string{
		"# SENTENÇA",
		"Processo nº 0001234-56.2025.5.02.0001",
		"**Reclamante:** Maria Da Silva",
		"## I — RELATÓRIO",
		"## II — FUNDAMENTAÇÃO",
		"## III — DISPOSITIVO",
		"Julgo procedente em parte.",
	} {
		if !strings.Contains(document, fragment) {
			t.Fatalf("document missing %q:\n%s", fragment, document)
		}
	}

	relatorioIdx := strings.Index(document, "## I — RELATÓRIO")
	fundamentacaoIdx := strings.Index(document, "## II — FUNDAMENTAÇÃO")
	dispositivoIdx := strings.Index(document, "## III — DISPOSITIVO")
	if !(relatorioIdx < fundamentacaoIdx && fundamentacaoIdx < dispositivoIdx) {
		t.Fatal("sections out of order")
	}
}
