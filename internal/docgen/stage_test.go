package docgen

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"lavra/internal/casestore"
	"lavra/internal/logging"
	"lavra/internal/testsupport"
)

type stubDrafter struct {
	sections map[string]string
	err      error
	prompts  []string
}

func (s *stubDrafter) CompleteText(_ context.Context, systemPrompt, _ string) (string, error) {
	s.prompts = append(s.prompts, systemPrompt)
	if s.err != nil {
		return "", s.err
	}
	switch systemPrompt {
	case RelatorioPrompt:
		return s.sections["relatorio"], nil
	case FundamentacaoPrompt:
		return s.sections["fundamentacao"], nil
	case DispositivoPrompt:
		return s.sections["dispositivo"], nil
	}
	return "", errors.New("unknown prompt")
}

func (s *stubDrafter) HealthCheck(context.Context) error { return nil }

const extractionPayload = `{
	"numero_processo": "0001234-56.2025.5.02.0001",
	"partes": {"reclamante": "MARIA DA SILVA", "reclamada": "EMPRESA XYZ LTDA"},
	"pedidos": ["horas extras"]
}`

func TestPrepareRequiresDecodableExtraction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := NewHandlerWithClient(cfg, &stubDrafter{}, logging.NewNop())

	if err := handler.Prepare(context.Background(), &casestore.Case{}); err == nil {
		t.Fatal("expected error for missing extraction")
	}
	if err := handler.Prepare(context.Background(), &casestore.Case{ExtractionJSON: "{broken"}); err == nil {
		t.Fatal("expected error for malformed extraction")
	}
	if err := handler.Prepare(context.Background(), &casestore.Case{ExtractionJSON: extractionPayload}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
}

func TestExecuteWritesSentenceArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubDrafter{sections: map[string]string{
		"relatorio":     "Trata-se de reclamação trabalhista movida por Maria da Silva.",
		"fundamentacao": "O pedido de horas extras procede.",
		"dispositivo":   "Julgo procedente o pedido.",
	}}
	handler := NewHandlerWithClient(cfg, stub, logging.NewNop())
	c := &casestore.Case{ID: "case-1", ExtractionJSON: extractionPayload}

	message, err := handler.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(message, "sentenca.md") {
		t.Fatalf("message = %q", message)
	}
	if len(stub.prompts) != 3 {
		t.Fatalf("drafted %d sections, want 3", len(stub.prompts))
	}
	if c.ArtifactPath == "" {
		t.Fatal("artifact path not recorded on case")
	}

	data, err := os.ReadFile(c.ArtifactPath)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	document := string(data)
	if !strings.Contains(document, "**Reclamante:** Maria Da Silva") {
		t.Fatalf("party name not normalized:\n%s", document)
	}
	if !strings.Contains(document, "Julgo procedente o pedido.") {
		t.Fatal("dispositivo section missing from artifact")
	}
}

func TestExecuteFailsOnEmptySection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubDrafter{sections: map[string]string{
		"relatorio":     "Relatório.",
		"fundamentacao": "   ",
		"dispositivo":   "Dispositivo.",
	}}
	handler := NewHandlerWithClient(cfg, stub, logging.NewNop())
	c := &casestore.Case{ID: "case-1", ExtractionJSON: extractionPayload}

	if _, err := handler.Execute(context.Background(), c); err == nil {
		t.Fatal("expected error for empty fundamentacao section")
	}
	if c.ArtifactPath != "" {
		t.Fatal("failed run must not record an artifact")
	}
}

func TestExecutePropagatesDrafterFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := NewHandlerWithClient(cfg, &stubDrafter{err: errors.New("rate limited")}, logging.NewNop())
	c := &casestore.Case{ID: "case-1", ExtractionJSON: extractionPayload}

	_, err := handler.Execute(context.Background(), c)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error = %v, want wrapped drafter failure", err)
	}
}

func TestHealthCheckRequiresAPIKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.LLM.APIKey = ""
	handler := NewHandlerWithClient(cfg, &stubDrafter{}, logging.NewNop())
	if handler.HealthCheck(context.Background()).Ready {
		t.Fatal("missing key must report unhealthy")
	}

	cfg.LLM.APIKey = "segredo"
	if !handler.HealthCheck(context.Background()).Ready {
		t.Fatal("configured handler must report healthy")
	}
}
