package main

import (
	"fmt"
	"strings"

	"github.com/ldi/taskdeck/internal/actions"
	"github.com/ldi/taskdeck/internal/client"
	"github.com/ldi/taskdeck/internal/view"
	"github.com/ldi/taskdeck/pkg/models"
	"github.com/spf13/cobra"
)

func (a *app) newTasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"t"},
		Short:   "List, submit and manage tasks",
		Args:    cobra.NoArgs,
	}
	cmd.AddCommand(
		a.newTasksListCommand(),
		a.newTasksCreateCommand(),
		a.newTasksUploadCommand(),
		a.newTaskActionCommand("cancel", "Cancel a running task", actions.Cancel, true),
		a.newTaskActionCommand("delete", "Delete a finished task", actions.Delete, true),
		a.newTaskActionCommand("result", "Print the result of a completed task", actions.GetResult, false),
		a.newTasksStatusCommand(),
	)
	return cmd
}

func (a *app) newTasksListCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && !models.TaskStatus(status).Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			tasks, err := a.client().ListTasks(cmd.Context())
			if err != nil {
				return err
			}

			tax := a.taxonomy()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-38s %-14s %-38s %s\n", "ID", "STATUS", "BATCH", "CONTENT")
			fmt.Fprintln(w, strings.Repeat("-", 110))
			for _, t := range tasks {
				if t == nil || (status != "" && string(t.Status) != status) {
					continue
				}
				fmt.Fprintf(w, "%-38s %-14s %-38s %s\n",
					t.ID,
					tax.Label(string(t.Status)),
					models.Deref(t.BatchID),
					view.Truncate(strings.TrimSpace(t.Content), view.ContentLimit),
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by raw status, e.g. in_progress or completed")
	return cmd
}

func (a *app) newTasksCreateCommand() *cobra.Command {
	var systemPrompt string
	cmd := &cobra.Command{
		Use:   "create <content>",
		Short: "Submit a single task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.client().CreateTask(cmd.Context(), strings.Join(args, " "), systemPrompt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created task %s (%s)\n", task.ID, a.taxonomy().Label(string(task.Status)))
			return nil
		},
	}
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "System prompt for the task")
	return cmd
}

func (a *app) newTasksUploadCommand() *cobra.Command {
	var systemPrompt string
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Submit one task per uploaded file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads := make([]client.Upload, 0, len(args))
			for _, path := range args {
				u, err := client.UploadFromPath(path)
				if err != nil {
					return err
				}
				uploads = append(uploads, u)
			}
			if systemPrompt == "" {
				systemPrompt = client.DefaultSystemPrompt
			}

			tasks, err := a.client().UploadTaskFiles(cmd.Context(), uploads, systemPrompt)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Uploaded %d file(s), created %d task(s)\n", len(uploads), len(tasks))
			for _, t := range tasks {
				if t != nil {
					fmt.Fprintf(w, "  - %s\n", t.ID)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "System prompt applied to every file")
	return cmd
}

func (a *app) newTaskActionCommand(use, short string, action actions.Action, destructive bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, action, args[0])
		},
	}
	if destructive {
		a.addYesFlag(cmd)
	}
	return cmd
}

func (a *app) newTasksStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show a task's current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.client().CheckTaskStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			info := a.taxonomy().Describe(string(task.Status))

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:      %s\n", task.ID)
			fmt.Fprintf(w, "Status:  %s (%s)\n", info.Label, task.Status)
			if task.BatchID != nil {
				fmt.Fprintf(w, "Batch:   %s\n", *task.BatchID)
			}
			if task.ErrorMessage != nil {
				fmt.Fprintf(w, "Error:   %s\n", *task.ErrorMessage)
			}
			return nil
		},
	}
}
