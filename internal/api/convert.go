package api

import (
	"lavra/internal/casestore"
	"lavra/internal/pipeline"
	"lavra/internal/stage"
	"lavra/internal/workflow"
)

// FromCase converts a persisted case into its API view.
func FromCase(c *casestore.Case) CaseView {
	view := CaseView{
		ID:             c.ID,
		Title:          c.Title,
		Status:         string(c.Status),
		CurrentStep:    c.CurrentStep,
		DocumentPath:   c.DocumentPath,
		RecordingPath:  c.RecordingPath,
		TranscriptPath: c.TranscriptPath,
		ArtifactPath:   c.ArtifactPath,
		ErrorMessage:   c.ErrorMessage,
	}
	if !c.CreatedAt.IsZero() {
		view.CreatedAt = c.CreatedAt.Format(dateTimeFormat)
	}
	if !c.UpdatedAt.IsZero() {
		view.UpdatedAt = c.UpdatedAt.Format(dateTimeFormat)
	}
	return view
}

// FromCases converts a case list into API views, preserving order.
func FromCases(cases []*casestore.Case) []CaseView {
	views := make([]CaseView, 0, len(cases))
	for _, c := range cases {
		views = append(views, FromCase(c))
	}
	return views
}

// FromSnapshot converts a pipeline snapshot into its API view.
func FromSnapshot(snap pipeline.Snapshot) RunSnapshot {
	tasks := make([]TaskView, 0, len(snap.Tasks))
	for _, task := range snap.Tasks {
		tasks = append(tasks, TaskView{
			ID:      task.ID,
			Name:    task.Name,
			Status:  string(task.Status),
			Message: task.Message,
		})
	}
	return RunSnapshot{
		Tasks:       tasks,
		CurrentStep: snap.CurrentStep,
		Progress: RunProgress{
			Completed: snap.Progress.Completed,
			Total:     snap.Progress.Total,
			Percent:   snap.Progress.Percent,
		},
	}
}

// FromStatusSummary converts the workflow summary into its API view.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.Stats))
	for status, count := range summary.Stats {
		stats[string(status)] = count
	}
	return WorkflowStatus{
		Running:   summary.Running,
		CaseStats: stats,
		LastError: summary.LastError,
	}
}

// FromStageHealth converts stage health checks into their API view.
func FromStageHealth(checks []stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(checks))
	for _, check := range checks {
		out = append(out, StageHealth{
			Name:   check.Name,
			Ready:  check.Ready,
			Detail: check.Detail,
		})
	}
	return out
}
