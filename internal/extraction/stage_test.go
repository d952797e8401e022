package extraction

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"lavra/internal/casestore"
	"lavra/internal/logging"
	"lavra/internal/testsupport"
)

type stubCompleter struct {
	response  string
	err       error
	healthErr error
	system    string
	user      string
	calls     int
}

func (s *stubCompleter) CompleteJSON(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	s.system = systemPrompt
	s.user = userPrompt
	return s.response, s.err
}

func (s *stubCompleter) HealthCheck(context.Context) error {
	return s.healthErr
}

func newStageCase(t *testing.T, dir string) *casestore.Case {
	t.Helper()
	docPath := filepath.Join(dir, "peticao.txt")
	transcriptPath := filepath.Join(dir, "transcricao.txt")
	testsupport.WriteFile(t, docPath, "Petição inicial: horas extras e verbas rescisórias.")
	testsupport.WriteFile(t, transcriptPath, "Juiz: declaro aberta a audiência.")
	return &casestore.Case{
		ID:             "case-1",
		DocumentPath:   docPath,
		TranscriptPath: transcriptPath,
	}
}

func TestPrepareRequiresBothInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := NewHandlerWithClient(cfg, &stubCompleter{}, logging.NewNop())

	if err := handler.Prepare(context.Background(), &casestore.Case{TranscriptPath: "/tmp/t.txt"}); err == nil {
		t.Fatal("expected error for missing document")
	}
	if err := handler.Prepare(context.Background(), &casestore.Case{DocumentPath: "/tmp/d.txt"}); err == nil {
		t.Fatal("expected error for missing transcript")
	}
}

func TestExecutePersistsValidatedExtraction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubCompleter{response: "```json\n" + `{
		"numero_processo": " 0001234-56.2025.5.02.0001 ",
		"partes": {"reclamante": "Maria da Silva", "reclamada": "Empresa XYZ Ltda"},
		"pedidos": ["horas extras", " dano moral "],
		"fatos_relevantes": ["vínculo reconhecido em audiência"],
		"valor_causa": "R$ 50.000,00"
	}` + "\n```"}
	handler := NewHandlerWithClient(cfg, stub, logging.NewNop())
	c := newStageCase(t, t.TempDir())

	message, err := handler.Execute(context.Background(), c)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(message, "0001234-56.2025.5.02.0001") || !strings.Contains(message, "2 pedidos") {
		t.Fatalf("message = %q", message)
	}
	if stub.calls != 1 {
		t.Fatalf("completer calls = %d, want 1", stub.calls)
	}
	if !strings.Contains(stub.user, "Petição inicial") {
		t.Fatal("user prompt missing document contents")
	}

	ruling, err := RulingFromJSON(c.ExtractionJSON)
	if err != nil {
		t.Fatalf("persisted extraction invalid: %v", err)
	}
	if ruling.NumeroProcesso != "0001234-56.2025.5.02.0001" {
		t.Fatalf("persisted numero_processo = %q, want normalized value", ruling.NumeroProcesso)
	}
	if ruling.Pedidos[1] != "dano moral" {
		t.Fatalf("pedidos = %v, want trimmed entries", ruling.Pedidos)
	}
}

func TestExecuteRejectsIncompleteExtraction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubCompleter{response: `{"numero_processo": "", "partes": {}, "pedidos": []}`}
	handler := NewHandlerWithClient(cfg, stub, logging.NewNop())
	c := newStageCase(t, t.TempDir())

	if _, err := handler.Execute(context.Background(), c); err == nil {
		t.Fatal("expected validation error for incomplete extraction")
	}
	if c.ExtractionJSON != "" {
		t.Fatal("invalid extraction must not be persisted")
	}
}

func TestExecutePropagatesCompleterFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubCompleter{err: errors.New("network error")}
	handler := NewHandlerWithClient(cfg, stub, logging.NewNop())
	c := newStageCase(t, t.TempDir())

	_, err := handler.Execute(context.Background(), c)
	if err == nil || !strings.Contains(err.Error(), "network error") {
		t.Fatalf("error = %v, want wrapped completer failure", err)
	}
}

func TestExecuteRejectsEmptyInputFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := NewHandlerWithClient(cfg, &stubCompleter{}, logging.NewNop())
	c := newStageCase(t, t.TempDir())
	testsupport.WriteFile(t, c.TranscriptPath, "   \n")

	if _, err := handler.Execute(context.Background(), c); err == nil {
		t.Fatal("expected error for empty transcript file")
	}
}

func TestHealthCheckRequiresAPIKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.LLM.APIKey = ""
	handler := NewHandlerWithClient(cfg, &stubCompleter{}, logging.NewNop())

	health := handler.HealthCheck(context.Background())
	if health.Ready {
		t.Fatal("missing key must report unhealthy")
	}

	cfg.LLM.APIKey = "segredo"
	health = handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("health = %+v, want ready", health)
	}

	failing := NewHandlerWithClient(cfg, &stubCompleter{healthErr: errors.New("unauthorized")}, logging.NewNop())
	health = failing.HealthCheck(context.Background())
	if health.Ready || !strings.Contains(health.Detail, "unauthorized") {
		t.Fatalf("health = %+v, want unauthorized detail", health)
	}
}
