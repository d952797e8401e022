package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"lavra/internal/casestore"
	"lavra/internal/logging"
	"lavra/internal/pipeline"
	"lavra/internal/stage"
	"lavra/internal/testsupport"
)

type stubHandler struct {
	name       string
	prepareErr error
	execErr    error
	message    string
	mutate     func(*casestore.Case)
	calls      int
	health     stage.Health
}

func (s *stubHandler) Prepare(context.Context, *casestore.Case) error {
	return s.prepareErr
}

func (s *stubHandler) Execute(_ context.Context, c *casestore.Case) (string, error) {
	s.calls++
	if s.execErr != nil {
		return "", s.execErr
	}
	if s.mutate != nil {
		s.mutate(c)
	}
	return s.message, nil
}

func (s *stubHandler) HealthCheck(context.Context) stage.Health {
	if s.health.Name == "" {
		return stage.Healthy(s.name)
	}
	return s.health
}

func testStageDefs(a, b, c *stubHandler) []StageDefinition {
	return []StageDefinition{
		{ID: "transcricao", Name: "Transcrição da audiência", Handler: a},
		{ID: "extracao", Name: "Extração de dados", Handler: b},
		{ID: "geracao", Name: "Geração da sentença", Handler: c},
	}
}

func queuedCase(t *testing.T, store *casestore.Store, title string) *casestore.Case {
	t.Helper()
	c := testsupport.NewCase(t, store, title)
	c.Status = casestore.StatusQueued
	if err := store.Update(context.Background(), c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return c
}

func TestProcessCaseCompletes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	transcribe := &stubHandler{name: "transcricao", message: "Transcrição concluída", mutate: func(c *casestore.Case) {
		c.TranscriptPath = "/tmp/transcricao.txt"
	}}
	extract := &stubHandler{name: "extracao", message: "Dados extraídos"}
	generate := &stubHandler{name: "geracao", mutate: func(c *casestore.Case) {
		c.ArtifactPath = "/tmp/sentenca.md"
	}}
	manager := NewManagerWithStages(cfg, store, logging.NewNop(), testStageDefs(transcribe, extract, generate))

	c := queuedCase(t, store, "Processo completo")
	if err := manager.processCase(ctx, c); err != nil {
		t.Fatalf("processCase: %v", err)
	}

	reloaded, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != casestore.StatusCompleted {
		t.Fatalf("status = %s, want completed", reloaded.Status)
	}
	if reloaded.CurrentStep != pipeline.DefaultCompletionMessage {
		t.Fatalf("current step = %q, want %q", reloaded.CurrentStep, pipeline.DefaultCompletionMessage)
	}
	if reloaded.TranscriptPath == "" || reloaded.ArtifactPath == "" {
		t.Fatal("stage side effects not persisted")
	}

	snap, ok := manager.Tracker().Snapshot(c.ID)
	if !ok {
		t.Fatal("expected tracker snapshot after run")
	}
	if snap.Progress.Percent != 100 {
		t.Fatalf("percent = %d, want 100", snap.Progress.Percent)
	}
	if snap.Tasks[0].Message != "Transcrição concluída" {
		t.Fatalf("stage message = %q", snap.Tasks[0].Message)
	}
}

func TestProcessCaseFailureAbortsRemainingStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	transcribe := &stubHandler{name: "transcricao", mutate: func(c *casestore.Case) {
		c.TranscriptPath = "/tmp/transcricao.txt"
	}}
	extract := &stubHandler{name: "extracao", execErr: errors.New("network error")}
	generate := &stubHandler{name: "geracao"}
	manager := NewManagerWithStages(cfg, store, logging.NewNop(), testStageDefs(transcribe, extract, generate))

	c := queuedCase(t, store, "Processo com falha")
	if err := manager.processCase(ctx, c); err != nil {
		t.Fatalf("processCase: %v", err)
	}

	reloaded, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != casestore.StatusFailed {
		t.Fatalf("status = %s, want failed", reloaded.Status)
	}
	if reloaded.ErrorMessage != "network error" {
		t.Fatalf("error message = %q", reloaded.ErrorMessage)
	}
	if generate.calls != 0 {
		t.Fatal("stage after the failure must not execute")
	}
	// The transcript from the completed first stage survives the failure.
	if reloaded.TranscriptPath == "" {
		t.Fatal("earlier stage result lost on failure")
	}

	snap, _ := manager.Tracker().Snapshot(c.ID)
	if snap.Tasks[1].Status != pipeline.StatusError || snap.Tasks[2].Status != pipeline.StatusPending {
		t.Fatalf("task states = %s/%s", snap.Tasks[1].Status, snap.Tasks[2].Status)
	}
}

func TestProcessCaseShutdownMarksDaemonStopped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())

	transcribe := &stubHandler{name: "transcricao", mutate: func(*casestore.Case) {
		cancel()
	}}
	manager := NewManagerWithStages(cfg, store, logging.NewNop(),
		testStageDefs(transcribe, &stubHandler{name: "extracao"}, &stubHandler{name: "geracao"}))

	c := queuedCase(t, store, "Processo interrompido")
	err := manager.processCase(ctx, c)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("processCase error = %v, want context.Canceled", err)
	}

	reloaded, err := store.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != casestore.StatusFailed {
		t.Fatalf("status = %s, want failed", reloaded.Status)
	}
	if reloaded.ErrorMessage != casestore.DaemonStopReason {
		t.Fatalf("error message = %q, want %q", reloaded.ErrorMessage, casestore.DaemonStopReason)
	}
}

func TestStartProcessesQueueAndStops(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	manager := NewManagerWithStages(cfg, store, logging.NewNop(),
		testStageDefs(&stubHandler{name: "transcricao"}, &stubHandler{name: "extracao"}, &stubHandler{name: "geracao"}))

	c := queuedCase(t, store, "Processo na fila")
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("second Start must fail while running")
	}
	if !manager.Running() {
		t.Fatal("manager must report running")
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		reloaded, err := store.GetByID(context.Background(), c.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if reloaded.Status == casestore.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("case never completed, status = %s", reloaded.Status)
		}
		time.Sleep(50 * time.Millisecond)
	}

	manager.Stop()
	if manager.Running() {
		t.Fatal("manager must report stopped")
	}
}

func TestStartRequeuesStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stuck := testsupport.NewCase(t, store, "Interrompido")
	stuck.Status = casestore.StatusProcessing
	if err := store.Update(ctx, stuck); err != nil {
		t.Fatalf("Update: %v", err)
	}

	manager := NewManagerWithStages(cfg, store, logging.NewNop(),
		testStageDefs(&stubHandler{name: "transcricao"}, &stubHandler{name: "extracao"}, &stubHandler{name: "geracao"}))
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()

	deadline := time.Now().Add(10 * time.Second)
	for {
		reloaded, err := store.GetByID(ctx, stuck.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if reloaded.Status == casestore.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stuck case never reprocessed, status = %s", reloaded.Status)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestHealthReportsAllStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	broken := &stubHandler{name: "extracao", health: stage.Unhealthy("extracao", "LLM API key not configured")}
	manager := NewManagerWithStages(cfg, store, logging.NewNop(),
		testStageDefs(&stubHandler{name: "transcricao"}, broken, &stubHandler{name: "geracao"}))

	checks := manager.Health(context.Background())
	if len(checks) != 3 {
		t.Fatalf("checks = %d, want 3", len(checks))
	}
	if !checks[0].Ready || checks[1].Ready {
		t.Fatalf("health = %+v", checks)
	}
	if checks[1].Detail != "LLM API key not configured" {
		t.Fatalf("detail = %q", checks[1].Detail)
	}
}

func TestStatusSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.NewCase(t, store, "Em intake")
	manager := NewManagerWithStages(cfg, store, logging.NewNop(),
		testStageDefs(&stubHandler{name: "transcricao"}, &stubHandler{name: "extracao"}, &stubHandler{name: "geracao"}))

	summary, err := manager.StatusSummary(context.Background())
	if err != nil {
		t.Fatalf("StatusSummary: %v", err)
	}
	if summary.Running {
		t.Fatal("manager not started, Running must be false")
	}
	if summary.Stats[casestore.StatusIntake] != 1 {
		t.Fatalf("stats = %v", summary.Stats)
	}
}
