package pipeline

import "testing"

func TestComputeProgressCountsOnlyCompleted(t *testing.T) {
	tasks := []Task{
		{ID: "a", Status: StatusCompleted},
		{ID: "b", Status: StatusCompleted},
		{ID: "c", Status: StatusRunning},
		{ID: "d", Status: StatusPending},
	}
	progress := ComputeProgress(tasks)
	if progress.Completed != 2 || progress.Total != 4 {
		t.Fatalf("progress = %d/%d, want 2/4", progress.Completed, progress.Total)
	}
	if progress.Percent != 50 {
		t.Fatalf("percent = %d, want 50", progress.Percent)
	}
}

func TestComputeProgressErroredTasksStayInTotal(t *testing.T) {
	tasks := []Task{
		{ID: "a", Status: StatusCompleted},
		{ID: "b", Status: StatusError},
		{ID: "c", Status: StatusPending},
	}
	progress := ComputeProgress(tasks)
	if progress.Completed != 1 || progress.Total != 3 {
		t.Fatalf("progress = %d/%d, want 1/3", progress.Completed, progress.Total)
	}
	if progress.Percent != 33 {
		t.Fatalf("percent = %d, want 33", progress.Percent)
	}
}

func TestComputeProgressEmpty(t *testing.T) {
	progress := ComputeProgress(nil)
	if progress.Percent != 0 || progress.Completed != 0 || progress.Total != 0 {
		t.Fatalf("empty progress = %+v, want zeros", progress)
	}
}

func TestComputeProgressRounding(t *testing.T) {
	tasks := []Task{
		{ID: "a", Status: StatusCompleted},
		{ID: "b", Status: StatusCompleted},
		{ID: "c", Status: StatusPending},
	}
	if percent := ComputeProgress(tasks).Percent; percent != 67 {
		t.Fatalf("percent = %d, want 67", percent)
	}
}
