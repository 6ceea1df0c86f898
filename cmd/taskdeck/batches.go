package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ldi/taskdeck/internal/actions"
	"github.com/ldi/taskdeck/internal/batches"
	"github.com/ldi/taskdeck/pkg/models"
	"github.com/spf13/cobra"
)

type batchFilterFlags struct {
	start  string
	end    string
	status string
	all    bool
}

func (f *batchFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "First creation day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last creation day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.status, "status", "", "Only batches with this status")
	cmd.Flags().BoolVar(&f.all, "all", false, "Ignore the default date window")
}

// resolve mirrors the dashboard: without explicit dates the last
// batches.window_days days are shown.
func (f *batchFilterFlags) resolve(now time.Time, windowDays int) (batches.Filter, error) {
	if f.start == "" && f.end == "" && !f.all {
		filter := batches.DefaultFilter(now, windowDays)
		filter.Status = f.status
		return filter, nil
	}
	return batches.ParseFilter(f.start, f.end, f.status)
}

func (a *app) loadBatches(cmd *cobra.Command, flags *batchFilterFlags) ([]*models.Batch, batches.Filter, error) {
	filter, err := flags.resolve(time.Now(), a.cfg.Batches.WindowDays)
	if err != nil {
		return nil, filter, err
	}
	all, err := a.client().ListBatches(cmd.Context())
	if err != nil {
		return nil, filter, err
	}
	return batches.ApplyFilter(all, filter), filter, nil
}

func (a *app) newBatchesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "batches",
		Aliases: []string{"b"},
		Short:   "Inspect and delete batches",
		Args:    cobra.NoArgs,
	}
	cmd.AddCommand(
		a.newBatchesListCommand(),
		a.newBatchesShowCommand(),
		a.newBatchesDeleteCommand(),
		a.newBatchesStatsCommand(),
	)
	return cmd
}

func (a *app) newBatchesListCommand() *cobra.Command {
	flags := &batchFilterFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches in a date window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, filter, err := a.loadBatches(cmd, flags)
			if err != nil {
				return err
			}

			tax := a.taxonomy()
			w := cmd.OutOrStdout()
			if filter.Start != nil && filter.End != nil {
				fmt.Fprintf(w, "Batches created %s to %s\n\n", batches.FormatDate(filter.Start), batches.FormatDate(filter.End))
			}
			fmt.Fprintf(w, "%-38s %-14s %-16s %-10s %s\n", "ID", "STATUS", "CREATED", "DONE", "FAILED")
			fmt.Fprintln(w, strings.Repeat("-", 90))
			for _, b := range list {
				if b == nil {
					continue
				}
				completed, failed := batches.Progress(b.RequestCounts)
				fmt.Fprintf(w, "%-38s %-14s %-16s %-10s %s\n",
					b.ID,
					tax.Label(b.Status),
					humanize.Time(b.Created()),
					fmt.Sprintf("%.1f%%", completed),
					fmt.Sprintf("%.1f%%", failed),
				)
			}
			fmt.Fprintf(w, "\nTotal: %d\n", len(list))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) newBatchesStatsCommand() *cobra.Command {
	flags := &batchFilterFlags{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count batches per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, _, err := a.loadBatches(cmd, flags)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Batch Status")
			fmt.Fprintln(w, "============")
			for _, s := range batches.ComputeStatusStats(list, a.taxonomy()) {
				fmt.Fprintf(w, "  %-16s %d\n", s.Label+":", s.Count)
			}
			fmt.Fprintf(w, "\nTotal: %d\n", len(list))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) newBatchesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Print a batch as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, actions.ViewBatch, args[0])
		},
	}
}

func (a *app) newBatchesDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <batch-id>",
		Short: "Delete a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, actions.DeleteBatch, args[0])
		},
	}
	a.addYesFlag(cmd)
	return cmd
}
