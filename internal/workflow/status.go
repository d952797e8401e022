package workflow

import (
	"context"

	"lavra/internal/casestore"
)

// StatusSummary aggregates daemon-facing workflow state for the status API.
type StatusSummary struct {
	Running   bool
	Stats     map[casestore.Status]int
	LastError string
}

// StatusSummary reports whether the poll loop is running plus case counts per
// lifecycle state.
func (m *Manager) StatusSummary(ctx context.Context) (StatusSummary, error) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return StatusSummary{}, err
	}
	summary := StatusSummary{
		Running: m.Running(),
		Stats:   stats,
	}
	if lastErr := m.LastError(); lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary, nil
}
