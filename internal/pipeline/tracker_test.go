package pipeline

import (
	"sync"
	"testing"
)

var testStages = []Stage{
	{ID: "transcricao", Name: "Transcrição da audiência"},
	{ID: "extracao", Name: "Extração de dados"},
	{ID: "geracao", Name: "Geração da sentença"},
}

func TestTrackerStartRunCreatesPendingTasks(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("case-1", testStages)

	snap, ok := tracker.Snapshot("case-1")
	if !ok {
		t.Fatal("expected snapshot for case-1")
	}
	if len(snap.Tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(snap.Tasks))
	}
	for _, task := range snap.Tasks {
		if task.Status != StatusPending {
			t.Fatalf("task %s status = %s, want pending", task.ID, task.Status)
		}
	}
	if snap.Progress.Percent != 0 {
		t.Fatalf("initial percent = %d, want 0", snap.Progress.Percent)
	}
}

func TestTrackerSnapshotUnknownCase(t *testing.T) {
	tracker := NewTracker()
	if _, ok := tracker.Snapshot("missing"); ok {
		t.Fatal("expected no snapshot for unknown case")
	}
}

func TestTrackerSnapshotIsACopy(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("case-1", testStages)

	snap, _ := tracker.Snapshot("case-1")
	snap.Tasks[0].Status = StatusError
	snap.Tasks[0].Message = "mutated"

	fresh, _ := tracker.Snapshot("case-1")
	if fresh.Tasks[0].Status != StatusPending || fresh.Tasks[0].Message != "" {
		t.Fatal("snapshot mutation leaked into tracker state")
	}
}

func TestTrackerBeginSetsLabelAndStatusTogether(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("case-1", testStages)

	if err := tracker.begin("case-1", "transcricao", "Transcrição da audiência", "Transcrição da audiência em andamento"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	snap, _ := tracker.Snapshot("case-1")
	if snap.CurrentStep != "Transcrição da audiência" {
		t.Fatalf("current step = %q", snap.CurrentStep)
	}
	if snap.Tasks[0].Status != StatusRunning {
		t.Fatalf("task status = %s, want running", snap.Tasks[0].Status)
	}
	if snap.Tasks[0].Message == "" {
		t.Fatal("running task has no message")
	}
}

func TestTrackerClear(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("case-1", testStages)
	tracker.Clear("case-1")
	if _, ok := tracker.Snapshot("case-1"); ok {
		t.Fatal("expected cleared case to have no snapshot")
	}
}

// Concurrent observers must always see internally consistent snapshots: a
// completed count that matches the task statuses in the same snapshot.
func TestTrackerConcurrentObservation(t *testing.T) {
	tracker := NewTracker()
	tracker.StartRun("case-1", testStages)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(4)
	for i := 0; i < 4; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap, ok := tracker.Snapshot("case-1")
				if !ok {
					continue
				}
				completed := 0
				for _, task := range snap.Tasks {
					if task.Status == StatusCompleted {
						completed++
					}
					if task.Status == StatusRunning && task.Message == "" {
						t.Error("running task observed without message")
						return
					}
				}
				if completed != snap.Progress.Completed {
					t.Errorf("torn snapshot: counted %d completed, progress says %d", completed, snap.Progress.Completed)
					return
				}
			}
		}()
	}

	for _, stg := range testStages {
		if err := tracker.begin("case-1", stg.ID, stg.Name, stg.Name+" em andamento"); err != nil {
			t.Fatalf("begin %s: %v", stg.ID, err)
		}
		if err := tracker.complete("case-1", stg.ID, "ok"); err != nil {
			t.Fatalf("complete %s: %v", stg.ID, err)
		}
	}
	close(done)
	wg.Wait()
}
