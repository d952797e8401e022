package stage

import (
	"context"
	"log/slog"

	"lavra/internal/casestore"
)

// Handler describes the contract the workflow manager needs from each stage.
// Execute returns a human-readable result message recorded on the stage's
// task; an empty message falls back to the pipeline default.
type Handler interface {
	Prepare(context.Context, *casestore.Case) error
	Execute(context.Context, *casestore.Case) (string, error)
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by handlers that accept a scoped logger before
// execution.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
