package workflow

import (
	"context"

	"lavra/internal/stage"
)

// Health runs every stage handler's health check and returns the results in
// pipeline order.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(m.stages))
	for _, def := range m.stages {
		checks = append(checks, def.Handler.HealthCheck(ctx))
	}
	return checks
}
