package pipeline

import "math"

// Progress is the derived completed/total ratio for a run. Only completed
// tasks count toward Completed; errored tasks stay in Total, which keeps the
// percentage honest when a run aborts early.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// ComputeProgress derives aggregate progress from a task list. Percent is
// rounded, clamped to [0, 100], and zero for an empty list.
func ComputeProgress(tasks []Task) Progress {
	progress := Progress{Total: len(tasks)}
	if progress.Total == 0 {
		return progress
	}
	for _, task := range tasks {
		if task.Status == StatusCompleted {
			progress.Completed++
		}
	}
	percent := int(math.Round(100 * float64(progress.Completed) / float64(progress.Total)))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	progress.Percent = percent
	return progress
}
