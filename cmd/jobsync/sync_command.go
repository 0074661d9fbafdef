package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobsync/internal/engine"
	"jobsync/internal/network"
	"jobsync/internal/store"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one push and pull cycle against the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd.ErrOrStderr(), func(st *store.Store, eng *engine.Engine) error {
				before, err := st.QueueLength(cmd.Context())
				if err != nil {
					return err
				}

				if err := eng.Sync(cmd.Context(), network.TriggerManual); err != nil {
					return fmt.Errorf("sync: %w", err)
				}

				after, err := st.QueueLength(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch {
				case before == 0:
					fmt.Fprintln(out, "Sync complete; queue was empty")
				case after == 0:
					fmt.Fprintf(out, "Sync complete; pushed %d queued changes\n", before)
				default:
					fmt.Fprintf(out, "Sync complete; %d of %d changes still queued\n", after, before)
				}
				return nil
			})
		},
	}
}
