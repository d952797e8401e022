package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"lavra/internal/casestore"
	"lavra/internal/config"
	"lavra/internal/logging"
	"lavra/internal/services"
	"lavra/internal/services/llm"
	"lavra/internal/stage"
)

const stageName = "extraction"

// Completer is the slice of the LLM client the extraction stage needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	HealthCheck(ctx context.Context) error
}

// Handler extracts structured case data from the petition and transcript.
type Handler struct {
	cfg    *config.Config
	client Completer
	logger *slog.Logger
}

// NewHandler constructs the extraction stage using default dependencies.
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewHandlerWithClient(cfg, client, logger)
}

// NewHandlerWithClient allows injecting the LLM client (used in tests).
func NewHandlerWithClient(cfg *config.Config, client Completer, logger *slog.Logger) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", stageName))
	}
	return &Handler{cfg: cfg, client: client, logger: stageLogger}
}

// SetLogger replaces the handler's logger with a scoped one.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger.With(logging.String("component", stageName))
	}
}

// Prepare validates that both extraction inputs exist on disk.
func (h *Handler) Prepare(ctx context.Context, c *casestore.Case) error {
	logger := logging.WithContext(ctx, h.logger)
	if strings.TrimSpace(c.DocumentPath) == "" {
		return services.Wrap(
			services.ErrValidation,
			stageName,
			"validate inputs",
			"No petition document registered for this case",
			nil,
		)
	}
	if strings.TrimSpace(c.TranscriptPath) == "" {
		return services.Wrap(
			services.ErrValidation,
			stageName,
			"validate inputs",
			"No transcript available; the transcription stage must run first",
			nil,
		)
	}
	logger.Info("starting extraction preparation",
		logging.String("document", c.DocumentPath),
		logging.String("transcript", c.TranscriptPath),
	)
	return nil
}

// Execute sends the petition and transcript to the LLM and persists the
// structured extraction on the case.
func (h *Handler) Execute(ctx context.Context, c *casestore.Case) (string, error) {
	logger := logging.WithContext(ctx, h.logger)

	document, err := readInput(c.DocumentPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "read document", "Could not read petition document", err)
	}
	transcript, err := readInput(c.TranscriptPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "read transcript", "Could not read hearing transcript", err)
	}

	logger.Info("requesting structured extraction",
		logging.Int("document_chars", len(document)),
		logging.Int("transcript_chars", len(transcript)),
	)
	content, err := h.client.CompleteJSON(ctx, SystemPrompt, BuildUserPrompt(document, transcript))
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "complete", "LLM extraction request failed", err)
	}

	var ruling Ruling
	if err := llm.DecodeLLMJSON(content, &ruling); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "decode", "LLM returned malformed extraction JSON", err)
	}
	ruling.Normalize()
	if err := ruling.Validate(); err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "validate", "Extraction is missing required case data", err)
	}

	encoded, err := ruling.Encode()
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "encode", "Could not persist extraction payload", err)
	}
	c.ExtractionJSON = encoded

	logger.Info("extraction complete",
		logging.String("numero_processo", ruling.NumeroProcesso),
		logging.Int("pedidos", len(ruling.Pedidos)),
	)
	return fmt.Sprintf("Dados extraídos: processo %s, %d pedidos", ruling.NumeroProcesso, len(ruling.Pedidos)), nil
}

// HealthCheck reports whether the LLM is reachable with the configured key.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(h.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy(stageName, "LLM API key not configured")
	}
	if err := h.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	return stage.Healthy(stageName)
}

func readInput(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("file %s is empty", path)
	}
	return text, nil
}
