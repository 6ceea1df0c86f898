package main

import (
	"github.com/ldi/taskdeck/internal/dashboard"
	"github.com/ldi/taskdeck/internal/mcp"
	"github.com/spf13/cobra"
)

func (a *app) newDashCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "dash",
		Aliases: []string{"dashboard"},
		Short:   "Open the live dashboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coord := dashboard.NewCoordinator(a.client(), dashboard.Options{
				PollInterval: a.cfg.Poll.Interval,
				WindowDays:   a.cfg.Batches.WindowDays,
				Taxonomy:     a.taxonomy(),
				Logger:       a.logger,
			})
			return a.runDashboard(cmd.Context(), coord)
		},
	}
}

func (a *app) newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the task tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("starting MCP server on stdio")
			return a.serveMCP(mcp.NewServer(a.client(), a.taxonomy()))
		},
	}
}
