package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"lavra/internal/casestore"
	"lavra/internal/config"
	"lavra/internal/docgen"
	"lavra/internal/extraction"
	"lavra/internal/logging"
	"lavra/internal/pipeline"
	"lavra/internal/services"
	"lavra/internal/stage"
	"lavra/internal/transcription"
)

// StageDefinition pairs a pipeline stage identity with its handler.
type StageDefinition struct {
	ID      string
	Name    string
	Handler stage.Handler
}

// DefaultStages builds the production stage sequence: transcription,
// extraction, document generation.
func DefaultStages(cfg *config.Config, logger *slog.Logger) []StageDefinition {
	return []StageDefinition{
		{ID: "transcricao", Name: "Transcrição da audiência", Handler: transcription.NewHandler(cfg, logger)},
		{ID: "extracao", Name: "Extração de dados", Handler: extraction.NewHandler(cfg, logger)},
		{ID: "geracao", Name: "Geração da sentença", Handler: docgen.NewHandler(cfg, logger)},
	}
}

// Manager polls the case store for queued cases and drives each one through
// the pipeline runner.
type Manager struct {
	cfg    *config.Config
	store  *casestore.Store
	logger *slog.Logger
	stages []StageDefinition

	tracker *pipeline.Tracker
	runner  *pipeline.Runner

	pollInterval       time.Duration
	errorRetryInterval time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a workflow manager with the production stages.
func NewManager(cfg *config.Config, store *casestore.Store, logger *slog.Logger) *Manager {
	return NewManagerWithStages(cfg, store, logger, DefaultStages(cfg, logger))
}

// NewManagerWithStages allows injecting the stage sequence (used in tests).
func NewManagerWithStages(cfg *config.Config, store *casestore.Store, logger *slog.Logger, stages []StageDefinition) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	tracker := pipeline.NewTracker()
	return &Manager{
		cfg:                cfg,
		store:              store,
		logger:             logger.With(logging.String("component", "workflow")),
		stages:             stages,
		tracker:            tracker,
		runner:             pipeline.NewRunner(tracker, logger),
		pollInterval:       time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}
}

// Tracker exposes the live run state for API observers.
func (m *Manager) Tracker() *pipeline.Tracker {
	return m.tracker
}

// Start begins background queue processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("reset stuck processing failed; interrupted cases may remain",
			logging.Error(err),
			logging.String(logging.FieldEventType, "reset_stuck_failed"),
		)
	} else if reset > 0 {
		m.logger.Info("requeued cases interrupted by a previous shutdown",
			logging.Int64("count", reset),
		)
	}

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the in-flight case to
// settle.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the poll loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastError returns the most recent queue access failure, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c, err := m.store.NextQueued(ctx)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to fetch next queued case",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check case database access"),
			)
			m.waitOrShutdown(ctx, m.errorRetryInterval)
			continue
		}
		if c == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		if err := m.processCase(ctx, c); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("case processing aborted",
				logging.Error(err),
				logging.String(logging.FieldCaseID, c.ID),
			)
			m.waitOrShutdown(ctx, m.errorRetryInterval)
		}
	}
}

func (m *Manager) waitOrShutdown(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		delay = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// processCase runs the full stage sequence for one case and persists the
// terminal status.
func (m *Manager) processCase(ctx context.Context, c *casestore.Case) error {
	runCtx := services.WithCaseID(ctx, c.ID)
	logger := logging.WithContext(runCtx, m.logger)
	logger.Info("case processing started",
		logging.String(logging.FieldEventType, "case_start"),
		logging.String("title", c.Title),
	)

	c.Status = casestore.StatusProcessing
	c.ErrorMessage = ""
	c.CurrentStep = "Em processamento"
	if err := m.store.Update(runCtx, c); err != nil {
		return err
	}

	outcome, err := m.runner.Run(runCtx, c.ID, m.buildStages(runCtx, c))
	if err != nil {
		// Broken run bookkeeping, not a stage failure. Fail the case so it
		// does not stay stuck in processing.
		c.SetFailed(err.Error())
		if updateErr := m.store.Update(context.WithoutCancel(runCtx), c); updateErr != nil {
			logger.Error("failed to persist case failure", logging.Error(updateErr))
		}
		return err
	}

	if outcome.Success {
		c.Status = casestore.StatusCompleted
		c.ErrorMessage = ""
		c.CurrentStep = pipeline.DefaultCompletionMessage
	} else {
		reason := outcome.Reason
		if runCtx.Err() != nil {
			reason = casestore.DaemonStopReason
		}
		c.SetFailed(reason)
	}
	// Persist the terminal state even when shutdown cancelled the run.
	if err := m.store.Update(context.WithoutCancel(runCtx), c); err != nil {
		logger.Error("failed to persist case outcome", logging.Error(err))
		return err
	}

	if outcome.Success {
		logger.Info("case processing completed",
			logging.String(logging.FieldEventType, "case_complete"),
			logging.String("artifact", c.ArtifactPath),
		)
	} else {
		logger.Error("case processing failed",
			logging.String(logging.FieldEventType, "case_failure"),
			logging.Int("failed_stage", outcome.FailedStage),
			logging.String("reason", strings.TrimSpace(outcome.Reason)),
		)
	}
	return runCtx.Err()
}

// buildStages adapts the stage handlers into pipeline operations bound to the
// case. Stage side effects (transcript path, extraction payload, artifact
// path) are persisted after each successful stage so a later failure keeps
// earlier results.
func (m *Manager) buildStages(ctx context.Context, c *casestore.Case) []pipeline.Stage {
	stages := make([]pipeline.Stage, 0, len(m.stages))
	for _, def := range m.stages {
		def := def
		stages = append(stages, pipeline.Stage{
			ID:   def.ID,
			Name: def.Name,
			Run: func(opCtx context.Context) (string, error) {
				stageCtx := services.WithStage(opCtx, def.ID)
				if aware, ok := def.Handler.(stage.LoggerAware); ok {
					aware.SetLogger(m.logger)
				}
				if err := def.Handler.Prepare(stageCtx, c); err != nil {
					return "", err
				}
				message, err := def.Handler.Execute(stageCtx, c)
				if err != nil {
					return "", err
				}
				m.syncCurrentStep(c)
				if err := m.store.Update(context.WithoutCancel(stageCtx), c); err != nil {
					return "", err
				}
				return message, nil
			},
		})
	}
	return stages
}

// syncCurrentStep mirrors the live tracker label into the persisted case row
// so CLI listings show progress without hitting the observer endpoint.
func (m *Manager) syncCurrentStep(c *casestore.Case) {
	if snap, ok := m.tracker.Snapshot(c.ID); ok && snap.CurrentStep != "" {
		c.CurrentStep = snap.CurrentStep
	}
}
