package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ldi/taskdeck/internal/actions"
	"github.com/spf13/cobra"
)

func (a *app) newFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"f"},
		Short:   "List, download and delete batch files",
		Args:    cobra.NoArgs,
	}
	cmd.AddCommand(
		a.newFilesListCommand(),
		a.newFilesDownloadCommand(),
		a.newFilesDeleteCommand(),
	)
	return cmd
}

func (a *app) newFilesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.client().ListFiles(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-30s %-30s %-10s %-14s %s\n", "ID", "FILENAME", "SIZE", "PURPOSE", "CREATED")
			fmt.Fprintln(w, strings.Repeat("-", 100))
			for _, f := range files {
				if f == nil {
					continue
				}
				fmt.Fprintf(w, "%-30s %-30s %-10s %-14s %s\n",
					f.ID, f.Filename, humanize.Bytes(uint64(max(f.Bytes, 0))), f.Purpose, humanize.Time(f.Created()))
			}
			return nil
		},
	}
}

func (a *app) newFilesDownloadCommand() *cobra.Command {
	var printURL bool
	cmd := &cobra.Command{
		Use:   "download <file-id>",
		Short: "Open a file's download URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if printURL {
				fmt.Fprintln(cmd.OutOrStdout(), a.client().DownloadURL(args[0]))
				return nil
			}
			return a.dispatch(cmd, actions.DownloadFile, args[0])
		},
	}
	cmd.Flags().BoolVar(&printURL, "print-url", false, "Print the URL instead of opening it")
	return cmd
}

func (a *app) newFilesDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <file-id>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, actions.DeleteFile, args[0])
		},
	}
	a.addYesFlag(cmd)
	return cmd
}
