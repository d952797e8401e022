package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"lavra/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Mostra o estado do daemon e do fluxo de processamento",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				renderDaemonStatus(cmd, status)
				return nil
			})
		},
	}
}

func renderDaemonStatus(cmd *cobra.Command, status *api.DaemonStatus) {
	out := cmd.OutOrStdout()
	running := "parado"
	if status.Running {
		running = "em execução"
	}
	fmt.Fprintf(out, "Daemon: %s (pid %d)\n", running, status.PID)
	fmt.Fprintf(out, "Banco de dados: %s\n", status.DatabasePath)
	if status.Workflow.LastError != "" {
		fmt.Fprintf(out, "Último erro: %s\n", status.Workflow.LastError)
	}

	if len(status.Workflow.CaseStats) > 0 {
		statuses := make([]string, 0, len(status.Workflow.CaseStats))
		for name := range status.Workflow.CaseStats {
			statuses = append(statuses, name)
		}
		sort.Strings(statuses)
		rows := make([][]string, 0, len(statuses))
		for _, name := range statuses {
			rows = append(rows, []string{
				colorizeStatus(name),
				fmt.Sprintf("%d", status.Workflow.CaseStats[name]),
			})
		}
		fmt.Fprintln(out, renderTable([]string{"Status", "Casos"}, rows, []columnAlignment{alignLeft, alignRight}))
	}

	if len(status.StageHealth) > 0 {
		rows := make([][]string, 0, len(status.StageHealth))
		for _, health := range status.StageHealth {
			ready := "ok"
			if !health.Ready {
				ready = "indisponível"
			}
			rows = append(rows, []string{health.Name, ready, health.Detail})
		}
		fmt.Fprintln(out, renderTable([]string{"Etapa", "Saúde", "Detalhe"}, rows, nil))
	}
}
