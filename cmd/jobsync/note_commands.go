package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobsync/internal/config"
	"jobsync/internal/store"
)

func newNoteCommand(ctx *commandContext) *cobra.Command {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Manage notes attached to jobs",
	}

	noteCmd.AddCommand(newNoteAddCommand(ctx))
	noteCmd.AddCommand(newNoteListCommand(ctx))
	noteCmd.AddCommand(newNoteUpdateCommand(ctx))
	noteCmd.AddCommand(newNoteDeleteCommand(ctx))

	return noteCmd
}

func newNoteAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <jobID> <content>",
		Short: "Attach a note to a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				job, err := resolveJob(cmd, st, args[0])
				if err != nil {
					return err
				}
				note, err := st.CreateNote(cmd.Context(), job.LocalID, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added note %s to job %s (queued for sync)\n",
					note.LocalID, shortID(job.LocalID))
				return nil
			})
		},
	}
}

func newNoteListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <jobID>",
		Short: "List a job's notes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				job, err := resolveJob(cmd, st, args[0])
				if err != nil {
					return err
				}
				notes, err := st.NotesByJob(cmd.Context(), job.LocalID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(notes) == 0 {
					fmt.Fprintln(out, "No notes")
					return nil
				}

				rows := make([][]string, 0, len(notes))
				for _, note := range notes {
					sync := "synced"
					if note.Dirty {
						sync = "pending"
					}
					rows = append(rows, []string{
						shortID(note.LocalID),
						truncate(note.Content, 60),
						sync,
						formatMillis(note.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Content", "Sync", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newNoteUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update <noteID> <content>",
		Short: "Replace a note's content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				note, err := st.UpdateNote(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated note %s (queued for sync)\n", note.LocalID)
				return nil
			})
		},
	}
}

func newNoteDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <noteID>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if err := st.DeleteNote(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s (deletion queued for sync)\n", args[0])
				return nil
			})
		},
	}
}
