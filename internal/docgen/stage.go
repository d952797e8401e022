package docgen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"lavra/internal/casestore"
	"lavra/internal/config"
	"lavra/internal/extraction"
	"lavra/internal/fileutil"
	"lavra/internal/logging"
	"lavra/internal/services"
	"lavra/internal/services/llm"
	"lavra/internal/stage"
)

const stageName = "docgen"

// Drafter is the slice of the LLM client the document stage needs.
type Drafter interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	HealthCheck(ctx context.Context) error
}

// Handler drafts the sentence sections and assembles the final document.
type Handler struct {
	cfg    *config.Config
	client Drafter
	logger *slog.Logger
}

// NewHandler constructs the document generation stage using default dependencies.
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
func NewHandlerWithClient(cfg *config.Config, client Drafter, logger *slog.Logger) *Handler {
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

// Prepare validates that the extraction stage produced usable case data.
func (h *Handler) Prepare(ctx context.Context, c *casestore.Case) error {
	logger := logging.WithContext(ctx, h.logger)
	if strings.TrimSpace(c.ExtractionJSON) == "" {
		return services.Wrap(
			services.ErrValidation,
			stageName,
			"validate inputs",
			"No extraction data available; the extraction stage must run first",
			nil,
		)
	}
	if _, err := extraction.RulingFromJSON(c.ExtractionJSON); err != nil {
		return services.Wrap(
			services.ErrValidation,
			stageName,
			"validate inputs",
			"Stored extraction payload is not decodable",
			err,
		)
	}
	logger.Info("starting document generation preparation")
	return nil
}

// Execute drafts the three sentence sections and writes the assembled
// Markdown document into the case workspace.
func (h *Handler) Execute(ctx context.Context, c *casestore.Case) (string, error) {
	logger := logging.WithContext(ctx, h.logger)

	ruling, err := extraction.RulingFromJSON(c.ExtractionJSON)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "decode extraction", "Stored extraction payload is not decodable", err)
	}
	userPrompt := c.ExtractionJSON

	sections := []struct {
		name   string
		prompt string
		dest   *string
	}{
		{"relatorio", RelatorioPrompt, nil},
		{"fundamentacao", FundamentacaoPrompt, nil},
		{"dispositivo", DispositivoPrompt, nil},
	}
	sentence := Sentence{
		NumeroProcesso: ruling.NumeroProcesso,
		Reclamante:     FormatPartyName(ruling.Partes.Reclamante),
		Reclamada:      FormatPartyName(ruling.Partes.Reclamada),
	}
	sections[0].dest = &sentence.Relatorio
	sections[1].dest = &sentence.Fundamentacao
	sections[2].dest = &sentence.Dispositivo

	for _, section := range sections {
		logger.Info("drafting sentence section", logging.String("section", section.name))
		text, err := h.client.CompleteText(ctx, section.prompt, userPrompt)
		if err != nil {
			return "", services.Wrap(services.ErrExternalTool, stageName, "draft "+section.name, fmt.Sprintf("LLM could not draft the %s section", section.name), err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", services.Wrap(services.ErrExternalTool, stageName, "draft "+section.name, fmt.Sprintf("LLM returned an empty %s section", section.name), nil)
		}
		*section.dest = text
	}

	document, err := Render(sentence)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "render", "Could not assemble the sentence document", err)
	}

	artifactPath := filepath.Join(h.cfg.CaseWorkspace(c.ID), "sentenca.md")
	if err := fileutil.WriteFileAtomic(artifactPath, []byte(document), 0o644); err != nil {
		return "", services.Wrap(services.ErrConfiguration, stageName, "write artifact", "Could not write the sentence document", err)
	}
	c.ArtifactPath = artifactPath

	logger.Info("document generation complete",
		logging.String("artifact", artifactPath),
		logging.Int("characters", len(document)),
	)
	return fmt.Sprintf("Minuta de sentença gerada: %s", filepath.Base(artifactPath)), nil
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
