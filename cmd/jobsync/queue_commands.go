package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobsync/internal/config"
	"jobsync/internal/store"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the pending mutation queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued mutations in enqueue order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				items, err := st.Drain(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.Seq),
						string(item.Action),
						describeMutation(item),
						formatMillis(item.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Seq", "Action", "Target", "Enqueued"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard all queued mutations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("queue clear discards unpushed changes; pass --force to confirm")
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				removed, err := st.ClearQueue(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d queued mutations\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm discarding unpushed changes")
	return cmd
}

// describeMutation extracts the target identifier from a payload for display.
func describeMutation(item store.Mutation) string {
	switch item.Action {
	case store.ActionCreateJob, store.ActionUpdateJob:
		if p, err := item.DecodeJob(); err == nil {
			return fmt.Sprintf("job %s %q", shortID(p.LocalID), truncate(p.Title, 30))
		}
	case store.ActionDeleteJob:
		if p, err := item.DecodeDeleteJob(); err == nil {
			return "job " + shortID(p.LocalID)
		}
	case store.ActionCreateNote, store.ActionUpdateNote:
		if p, err := item.DecodeNote(); err == nil {
			return fmt.Sprintf("note %s on job %s", shortID(p.LocalID), shortID(p.JobLocalID))
		}
	case store.ActionDeleteNote:
		if p, err := item.DecodeDeleteNote(); err == nil {
			return fmt.Sprintf("note %s on job %s", shortID(p.LocalID), shortID(p.JobLocalID))
		}
	case store.ActionUploadVideo:
		if p, err := item.DecodeVideo(); err == nil {
			return fmt.Sprintf("video %s on job %s", shortID(p.LocalID), shortID(p.JobLocalID))
		}
	}
	return "-"
}
