package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobsync/internal/config"
	"jobsync/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize unpushed local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				status, err := st.Status(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				rows := [][]string{
					{"Queued mutations", fmt.Sprintf("%d", status.QueueLength)},
					{"Dirty jobs", fmt.Sprintf("%d", status.DirtyJobs)},
					{"Dirty notes", fmt.Sprintf("%d", status.DirtyNotes)},
					{"Pending videos", fmt.Sprintf("%d", status.PendingVideos)},
					{"Failed videos", fmt.Sprintf("%d", status.FailedVideos)},
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Metric", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))

				if status.QueueLength == 0 && status.FailedVideos == 0 {
					fmt.Fprintln(out, "All local changes are synced")
				}
				return nil
			})
		},
	}
}
