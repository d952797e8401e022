package pipeline

import (
	"fmt"
	"sync"
)

// Snapshot is the read-only view of a run handed to observers. Tasks is a
// copy; mutating it never affects the live run.
type Snapshot struct {
	Tasks       []Task   `json:"tasks"`
	CurrentStep string   `json:"current_step"`
	Progress    Progress `json:"progress"`
}

// Tracker owns the live task state for every case with an active or finished
// run. One run per case: starting a new run for a case discards the previous
// run's state.
type Tracker struct {
	mu   sync.RWMutex
	runs map[string]*runState
}

type runState struct {
	tasks []Task
	label string
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{runs: make(map[string]*runState)}
}

// StartRun registers a fresh pending task per stage for the case, replacing
// any prior run state.
func (tr *Tracker) StartRun(caseID string, stages []Stage) {
	tasks := make([]Task, 0, len(stages))
	for _, stg := range stages {
		tasks = append(tasks, newTask(stg.ID, stg.Name))
	}
	tr.mu.Lock()
	tr.runs[caseID] = &runState{tasks: tasks}
	tr.mu.Unlock()
}

// Clear drops the run state for a case.
func (tr *Tracker) Clear(caseID string) {
	tr.mu.Lock()
	delete(tr.runs, caseID)
	tr.mu.Unlock()
}

// Snapshot returns a consistent copy of the case's tasks, current step label,
// and derived progress. Safe to call at any time, including concurrently with
// the runner's mutations.
func (tr *Tracker) Snapshot(caseID string) (Snapshot, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	run, ok := tr.runs[caseID]
	if !ok {
		return Snapshot{}, false
	}
	tasks := make([]Task, len(run.tasks))
	copy(tasks, run.tasks)
	return Snapshot{
		Tasks:       tasks,
		CurrentStep: run.label,
		Progress:    ComputeProgress(tasks),
	}, true
}

// begin updates the current step label and moves the task to running as one
// atomic mutation, so a poll never sees the new label with the old status or
// a running task without a message.
func (tr *Tracker) begin(caseID, taskID, label, message string) error {
	return tr.mutate(caseID, taskID, func(run *runState, task *Task) error {
		if err := task.transition(StatusRunning, message); err != nil {
			return err
		}
		run.label = label
		return nil
	})
}

func (tr *Tracker) complete(caseID, taskID, message string) error {
	return tr.mutate(caseID, taskID, func(_ *runState, task *Task) error {
		return task.transition(StatusCompleted, message)
	})
}

func (tr *Tracker) fail(caseID, taskID, label, reason string) error {
	return tr.mutate(caseID, taskID, func(run *runState, task *Task) error {
		if err := task.transition(StatusError, reason); err != nil {
			return err
		}
		run.label = label
		return nil
	})
}

func (tr *Tracker) setLabel(caseID, label string) {
	tr.mu.Lock()
	if run, ok := tr.runs[caseID]; ok {
		run.label = label
	}
	tr.mu.Unlock()
}

func (tr *Tracker) mutate(caseID, taskID string, fn func(*runState, *Task) error) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	run, ok := tr.runs[caseID]
	if !ok {
		return fmt.Errorf("pipeline tracker: no run for case %s", caseID)
	}
	for i := range run.tasks {
		if run.tasks[i].ID == taskID {
			return fn(run, &run.tasks[i])
		}
	}
	return fmt.Errorf("pipeline tracker: case %s has no task %s", caseID, taskID)
}
