package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"medialink/internal/media"
)

func newQueueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage queued media files",
	}
	cmd.AddCommand(newQueueListCommand())
	cmd.AddCommand(newQueueRetryCommand())
	cmd.AddCommand(newQueueClearCommand())
	return cmd
}

func newQueueListCommand() *cobra.Command {
	var statusFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued files, optionally filtered by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var statuses []media.Status
			if statusFilter != "" {
				status, ok := media.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
				statuses = append(statuses, status)
			}

			files, err := store.List(cmd.Context(), limit, statuses...)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("queue is empty")
				return nil
			}

			t := newTable()
			t.AppendHeader(table.Row{"ID", "State", "Retries", "File", "Destination", "Error"})
			for _, file := range files {
				t.AppendRow(table.Row{
					file.ID,
					file.Status,
					file.RetryCount,
					truncate(file.OriginalFilename, 48),
					truncate(file.NewFilepath, 56),
					truncate(file.ErrorMessage, 48),
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "filter by state (pending, processing, completed, failed, no_match, conflict)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum rows to show, 0 for all")
	return cmd
}

func newQueueRetryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>...",
		Short: "Move failed, unmatched, or conflicted files back to pending",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid file id %q", arg)
				}
				if err := store.Retry(cmd.Context(), id); err != nil {
					if errors.Is(err, media.ErrStaleTransition) {
						fmt.Printf("file %d is not in a retryable state\n", id)
						continue
					}
					return err
				}
				fmt.Printf("file %d queued for retry; the next scan picks it up\n", id)
			}
			return nil
		},
	}
}

func newQueueClearCommand() *cobra.Command {
	var states []string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete terminal rows from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			statuses := make([]media.Status, 0, len(states))
			for _, raw := range states {
				status, ok := media.ParseStatus(strings.TrimSpace(raw))
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				if !status.IsTerminal() {
					return fmt.Errorf("refusing to clear non-terminal status %q", raw)
				}
				statuses = append(statuses, status)
			}

			removed, err := store.ClearTerminal(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			fmt.Printf("removed %d rows\n", removed)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&states, "status", nil, "terminal states to clear (default: all terminal states)")
	return cmd
}
