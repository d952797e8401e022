package api

import (
	"testing"
	"time"

	"lavra/internal/casestore"
	"lavra/internal/pipeline"
)

func TestFromCase(t *testing.T) {
	created := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	view := FromCase(&casestore.Case{
		ID:           "case-1",
		Title:        "Reclamação trabalhista",
		Status:       casestore.StatusFailed,
		CurrentStep:  "Falha",
		ErrorMessage: "network error",
		CreatedAt:    created,
	})

	if view.Status != "failed" || view.ErrorMessage != "network error" {
		t.Fatalf("view = %+v", view)
	}
	if view.CreatedAt != "2026-03-14T10:30:00.000Z" {
		t.Fatalf("createdAt = %q", view.CreatedAt)
	}
	if view.UpdatedAt != "" {
		t.Fatalf("updatedAt = %q, want empty for zero time", view.UpdatedAt)
	}
}

func TestFromSnapshot(t *testing.T) {
	snap := pipeline.Snapshot{
		Tasks: []pipeline.Task{
			{ID: "transcricao", Name: "Transcrição da audiência", Status: pipeline.StatusCompleted, Message: "ok"},
			{ID: "extracao", Name: "Extração de dados", Status: pipeline.StatusRunning, Message: "em andamento"},
		},
		CurrentStep: "Extração de dados",
		Progress:    pipeline.Progress{Completed: 1, Total: 2, Percent: 50},
	}
	view := FromSnapshot(snap)

	if len(view.Tasks) != 2 || view.Tasks[0].Status != "completed" {
		t.Fatalf("tasks = %+v", view.Tasks)
	}
	if view.CurrentStep != "Extração de dados" {
		t.Fatalf("currentStep = %q", view.CurrentStep)
	}
	if view.Progress.Percent != 50 {
		t.Fatalf("percent = %d", view.Progress.Percent)
	}
}
