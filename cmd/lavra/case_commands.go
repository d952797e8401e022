package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lavra/internal/api"
)

func newCaseCommand(ctx *commandContext) *cobra.Command {
	caseCmd := &cobra.Command{
		Use:   "case",
		Short: "Gerencia os casos em processamento",
	}
	caseCmd.AddCommand(
		newCaseAddCommand(ctx),
		newCaseListCommand(ctx),
		newCaseShowCommand(ctx),
		newCaseUploadCommand(ctx),
		newCaseRunCommand(ctx),
		newCaseStatusCommand(ctx),
		newCaseDocumentCommand(ctx),
		newCaseRetryCommand(ctx),
		newCaseRemoveCommand(ctx),
		newCaseClearCommand(ctx),
	)
	return caseCmd
}

func newCaseAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add [título]",
		Short: "Registra um novo caso",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) > 0 {
				title = args[0]
			}
			return ctx.withClient(func(client *api.Client) error {
				created, err := client.CreateCase(cmd.Context(), title)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Caso registrado: %s\n", created.ID)
				fmt.Fprintln(cmd.OutOrStdout(), "Envie os arquivos com `lavra case upload <id> document <arquivo>` e `lavra case upload <id> recording <arquivo>`.")
				return nil
			})
		},
	}
}

func newCaseListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista os casos registrados",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				cases, err := client.ListCases(cmd.Context(), statusFilters...)
				if err != nil {
					return err
				}
				if len(cases) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nenhum caso registrado.")
					return nil
				}
				rows := make([][]string, 0, len(cases))
				for _, c := range cases {
					rows = append(rows, []string{
						c.ID,
						c.Title,
						colorizeStatus(c.Status),
						c.CurrentStep,
						c.UpdatedAt,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Título", "Status", "Etapa", "Atualizado"},
					rows,
					nil,
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filtra por status (intake, queued, processing, completed, failed)")
	return cmd
}

func newCaseShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Mostra os detalhes de um caso",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				c, err := client.GetCase(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printCaseDetails(cmd, c)
				return nil
			})
		},
	}
}

func printCaseDetails(cmd *cobra.Command, c *api.CaseView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:         %s\n", c.ID)
	fmt.Fprintf(out, "Título:     %s\n", c.Title)
	fmt.Fprintf(out, "Status:     %s\n", colorizeStatus(c.Status))
	if c.CurrentStep != "" {
		fmt.Fprintf(out, "Etapa:      %s\n", c.CurrentStep)
	}
	if c.DocumentPath != "" {
		fmt.Fprintf(out, "Petição:    %s\n", c.DocumentPath)
	}
	if c.RecordingPath != "" {
		fmt.Fprintf(out, "Gravação:   %s\n", c.RecordingPath)
	}
	if c.TranscriptPath != "" {
		fmt.Fprintf(out, "Transcrição: %s\n", c.TranscriptPath)
	}
	if c.ArtifactPath != "" {
		fmt.Fprintf(out, "Sentença:   %s\n", c.ArtifactPath)
	}
	if c.ErrorMessage != "" {
		fmt.Fprintf(out, "Erro:       %s\n", c.ErrorMessage)
	}
}

func newCaseUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <id> <document|recording> <arquivo>",
		Short: "Envia a petição inicial ou a gravação da audiência",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, role, path := args[0], strings.ToLower(args[1]), args[2]
			return ctx.withClient(func(client *api.Client) error {
				c, err := client.UploadInput(cmd.Context(), id, role, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Arquivo recebido (%s).\n", role)
				if c.DocumentPath != "" && c.RecordingPath != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "Ingestão completa. Inicie o processamento com `lavra case run`.")
				}
				return nil
			})
		},
	}
}

func newCaseRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <id>",
		Short: "Enfileira o caso para processamento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				c, err := client.StartRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Caso %s enfileirado. Acompanhe com `lavra case status %s`.\n", c.ID, c.ID)
				return nil
			})
		},
	}
}

func newCaseStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Mostra o andamento do processamento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.CaseStatus(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Caso %s — %s\n", status.Case.ID, colorizeStatus(status.Case.Status))
				if status.Run == nil {
					if status.Case.CurrentStep != "" {
						fmt.Fprintf(out, "Etapa: %s\n", status.Case.CurrentStep)
					} else {
						fmt.Fprintln(out, "Nenhum processamento iniciado.")
					}
					return nil
				}
				fmt.Fprintf(out, "Etapa atual: %s\n", status.Run.CurrentStep)
				fmt.Fprintf(out, "Progresso: %d%% (%d/%d)\n",
					status.Run.Progress.Percent,
					status.Run.Progress.Completed,
					status.Run.Progress.Total,
				)
				rows := make([][]string, 0, len(status.Run.Tasks))
				for _, task := range status.Run.Tasks {
					rows = append(rows, []string{task.Name, task.Status, task.Message})
				}
				fmt.Fprintln(out, renderTable([]string{"Tarefa", "Status", "Mensagem"}, rows, nil))
				return nil
			})
		},
	}
}

func newCaseDocumentCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "document <id>",
		Short: "Baixa a minuta de sentença gerada",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				data, err := client.Document(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if outputPath == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(outputPath, data, 0o644); err != nil {
					return fmt.Errorf("write document: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sentença salva em %s\n", outputPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Arquivo de destino (padrão: stdout)")
	return cmd
}

func newCaseRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Reenfileira um caso com falha",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				c, err := client.RetryCase(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Caso %s reenfileirado.\n", c.ID)
				return nil
			})
		},
	}
}

func newCaseClearCommand(ctx *commandContext) *cobra.Command {
	var onlyCompleted, onlyFailed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove casos em lote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if onlyCompleted && onlyFailed {
				return fmt.Errorf("use apenas uma das opções --completed ou --failed")
			}
			scope := ""
			switch {
			case onlyCompleted:
				scope = "completed"
			case onlyFailed:
				scope = "failed"
			}
			return ctx.withClient(func(client *api.Client) error {
				removed, err := client.ClearCases(cmd.Context(), scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Casos removidos: %d\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&onlyCompleted, "completed", false, "Remove apenas os casos concluídos")
	cmd.Flags().BoolVar(&onlyFailed, "failed", false, "Remove apenas os casos com falha")
	return cmd
}

func newCaseRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove um caso",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				if err := client.RemoveCase(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Caso %s removido.\n", args[0])
				return nil
			})
		},
	}
}
