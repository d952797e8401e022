package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lavra/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Gerencia o arquivo de configuração",
	}
	configCmd.AddCommand(
		newConfigInitCommand(),
		newConfigShowCommand(ctx),
		newConfigValidateCommand(),
	)
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Cria um arquivo de configuração de exemplo",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			_, _, exists, err := config.Load("")
			if err == nil && exists && !force {
				return fmt.Errorf("configuração já existe em %s (use --force para sobrescrever)", path)
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuração de exemplo criada em %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Sobrescreve o arquivo existente")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Mostra a configuração resolvida",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"workspace_dir", cfg.Paths.WorkspaceDir},
				{"log_dir", cfg.Paths.LogDir},
				{"api_bind", cfg.Paths.APIBind},
				{"llm.model", cfg.LLM.Model},
				{"llm.api_key", redactSecret(cfg.LLM.APIKey)},
				{"whisperx.model", cfg.WhisperX.Model},
				{"whisperx.language", cfg.WhisperX.Language},
				{"workflow.queue_poll_interval", fmt.Sprintf("%ds", cfg.Workflow.QueuePollInterval)},
				{"logging.level", cfg.Logging.Level},
				{"logging.format", cfg.Logging.Format},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Chave", "Valor"}, rows, nil))
			return nil
		},
	}
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Valida o arquivo de configuração",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, exists, err := config.Load("")
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintf(cmd.OutOrStdout(), "Nenhum arquivo encontrado; usando padrões (caminho esperado: %s)\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuração válida: %s\n", path)
			return nil
		},
	}
}

func redactSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "(não configurada)"
	}
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "…" + value[len(value)-4:]
}
