package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lavra/internal/logging"
)

// DefaultCompletionMessage is recorded on a completed task when the stage's
// operation supplies no message of its own.
const DefaultCompletionMessage = "Concluído"

// Operation invokes one external collaborator for a case. It returns a
// human-readable result message on success or the failure reason as an error.
type Operation func(ctx context.Context) (string, error)

// Stage is a named, ordered step in the pipeline backed by one operation.
type Stage struct {
	ID   string
	Name string
	Run  Operation
}

// Outcome reports how a run ended. FailedStage is -1 on success.
type Outcome struct {
	Success     bool
	FailedStage int
	Reason      string
}

// Runner executes a fixed, ordered stage list for one case, strictly
// sequentially, aborting on the first failure. It is stage-list-agnostic; the
// workflow manager supplies the concrete sequence.
type Runner struct {
	tracker *Tracker
	logger  *slog.Logger
}

// NewRunner constructs a runner publishing task state through the tracker.
func NewRunner(tracker *Tracker, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{tracker: tracker, logger: logger}
}

// Run drives the stage list for the case. Each stage's task moves to running
// before its operation is invoked (so observers see live progress during slow
// operations) and to completed or error afterwards. On failure no later stage
// runs; earlier completed tasks keep their status. A non-nil error return
// means a broken invariant (ErrInvalidTransition), not a stage failure.
func (r *Runner) Run(ctx context.Context, caseID string, stages []Stage) (Outcome, error) {
	if len(stages) == 0 {
		return Outcome{}, errors.New("pipeline run: no stages configured")
	}
	r.tracker.StartRun(caseID, stages)

	for i, stg := range stages {
		if err := r.tracker.begin(caseID, stg.ID, stg.Name, stg.Name+" em andamento"); err != nil {
			return Outcome{}, fmt.Errorf("begin stage %s: %w", stg.ID, err)
		}
		if err := ctx.Err(); err != nil {
			return r.failStage(caseID, i, stg, err)
		}
		stageStart := time.Now()
		r.logger.Info("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
			logging.String(logging.FieldCaseID, caseID),
			logging.String(logging.FieldStage, stg.ID),
		)

		message, opErr := stg.Run(ctx)
		if opErr != nil {
			return r.failStage(caseID, i, stg, opErr)
		}

		message = strings.TrimSpace(message)
		if message == "" {
			message = DefaultCompletionMessage
		}
		if err := r.tracker.complete(caseID, stg.ID, message); err != nil {
			return Outcome{}, fmt.Errorf("complete stage %s: %w", stg.ID, err)
		}
		r.logger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.String(logging.FieldCaseID, caseID),
			logging.String(logging.FieldStage, stg.ID),
			logging.Duration("stage_duration", time.Since(stageStart)),
		)
	}

	r.tracker.setLabel(caseID, DefaultCompletionMessage)
	return Outcome{Success: true, FailedStage: -1}, nil
}

func (r *Runner) failStage(caseID string, index int, stg Stage, opErr error) (Outcome, error) {
	reason := strings.TrimSpace(opErr.Error())
	if reason == "" {
		reason = "stage failed"
	}
	if err := r.tracker.fail(caseID, stg.ID, "Falha: "+stg.Name, reason); err != nil {
		return Outcome{}, fmt.Errorf("fail stage %s: %w", stg.ID, err)
	}
	r.logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldCaseID, caseID),
		logging.String(logging.FieldStage, stg.ID),
		logging.Error(opErr),
	)
	return Outcome{Success: false, FailedStage: index, Reason: reason}, nil
}
