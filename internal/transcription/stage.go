package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"lavra/internal/casestore"
	"lavra/internal/config"
	"lavra/internal/fileutil"
	"lavra/internal/logging"
	"lavra/internal/services"
	"lavra/internal/services/whisperx"
	"lavra/internal/stage"
)

const stageName = "transcription"

// Handler transcribes the hearing recording into a plain-text transcript
// stored in the case workspace.
type Handler struct {
	cfg    *config.Config
	svc    *whisperx.Service
	logger *slog.Logger
}

// NewHandler constructs the transcription stage using default dependencies.
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	svc := whisperx.NewService(whisperx.Config{
		Model:       cfg.WhisperX.Model,
		CUDAEnabled: cfg.WhisperX.CUDAEnabled,
		Language:    cfg.WhisperX.Language,
		VADMethod:   cfg.WhisperX.VADMethod,
		HFToken:     cfg.WhisperX.HFToken,
	}, cfg.FFmpegBinary())
	return NewHandlerWithService(cfg, svc, logger)
}

// NewHandlerWithService allows injecting the transcription service (used in tests).
func NewHandlerWithService(cfg *config.Config, svc *whisperx.Service, logger *slog.Logger) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", stageName))
	}
	return &Handler{cfg: cfg, svc: svc, logger: stageLogger}
}

// SetLogger replaces the handler's logger with a scoped one.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger.With(logging.String("component", stageName))
	}
}

// Prepare validates that the recording upload is present on disk.
func (h *Handler) Prepare(ctx context.Context, c *casestore.Case) error {
	logger := logging.WithContext(ctx, h.logger)
	recording := strings.TrimSpace(c.RecordingPath)
	if recording == "" {
		return services.Wrap(
			services.ErrValidation,
			stageName,
			"validate inputs",
			"No hearing recording registered for this case; upload the recording before starting a run",
			nil,
		)
	}
	if _, err := os.Stat(recording); err != nil {
		return services.Wrap(
			services.ErrValidation,
			stageName,
			"validate inputs",
			fmt.Sprintf("Hearing recording missing on disk: %s", recording),
			err,
		)
	}
	logger.Info("starting transcription preparation",
		logging.String("recording", recording),
		logging.String("model", h.svc.Model()),
	)
	return nil
}

// Execute extracts the recording's audio, runs WhisperX and writes the
// transcript into the case workspace.
func (h *Handler) Execute(ctx context.Context, c *casestore.Case) (string, error) {
	logger := logging.WithContext(ctx, h.logger)
	workspace := h.cfg.CaseWorkspace(c.ID)
	if err := fileutil.EnsureDir(workspace); err != nil {
		return "", services.Wrap(services.ErrConfiguration, stageName, "ensure workspace", "Could not create case workspace", err)
	}

	audioPath := filepath.Join(workspace, "audiencia.wav")
	logger.Info("extracting audio from recording",
		logging.String("recording", c.RecordingPath),
		logging.String("audio", audioPath),
	)
	if err := h.svc.ExtractAudio(ctx, c.RecordingPath, audioPath); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "extract audio", "ffmpeg could not extract audio from the hearing recording", err)
	}

	logger.Info("running whisperx transcription",
		logging.String("model", h.svc.Model()),
		logging.String("language", h.svc.Language()),
	)
	result, err := h.svc.TranscribeFile(ctx, audioPath, workspace)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "transcribe", "WhisperX transcription failed", err)
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", services.Wrap(services.ErrExternalTool, stageName, "transcribe", "WhisperX produced an empty transcript", nil)
	}

	transcriptPath := filepath.Join(workspace, "transcricao.txt")
	if err := fileutil.WriteFileAtomic(transcriptPath, []byte(text+"\n"), 0o644); err != nil {
		return "", services.Wrap(services.ErrConfiguration, stageName, "write transcript", "Could not write transcript file", err)
	}
	c.TranscriptPath = transcriptPath

	logger.Info("transcription complete",
		logging.String("transcript", transcriptPath),
		logging.Int("characters", len(text)),
	)
	return fmt.Sprintf("Transcrição concluída (%d caracteres)", len(text)), nil
}

// HealthCheck verifies the external tools are available on PATH.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if _, err := exec.LookPath(h.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy(stageName, "ffmpeg not found on PATH")
	}
	if _, err := exec.LookPath(whisperx.UVXCommand); err != nil {
		return stage.Unhealthy(stageName, "uvx not found on PATH")
	}
	return stage.Healthy(stageName)
}
