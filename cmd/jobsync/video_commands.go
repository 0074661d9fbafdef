package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jobsync/internal/config"
	"jobsync/internal/store"
)

func newVideoCommand(ctx *commandContext) *cobra.Command {
	videoCmd := &cobra.Command{
		Use:   "video",
		Short: "Manage site videos attached to jobs",
	}

	videoCmd.AddCommand(newVideoAddCommand(ctx))
	videoCmd.AddCommand(newVideoListCommand(ctx))
	videoCmd.AddCommand(newVideoRetryCommand(ctx))

	return videoCmd
}

func newVideoAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <jobID> <file>",
		Short: "Queue a video file for upload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				job, err := resolveJob(cmd, st, args[0])
				if err != nil {
					return err
				}
				filePath, err := config.ExpandPath(args[1])
				if err != nil {
					return err
				}
				if _, err := os.Stat(filePath); err != nil {
					return fmt.Errorf("video file: %w", err)
				}
				video, err := st.AddVideo(cmd.Context(), job.LocalID, filePath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued video %s for job %s\n",
					video.LocalID, shortID(job.LocalID))
				return nil
			})
		},
	}
}

func newVideoListCommand(ctx *commandContext) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "list <jobID>",
		Short: "List a job's videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				job, err := resolveJob(cmd, st, args[0])
				if err != nil {
					return err
				}

				var videos []*store.Video
				if pendingOnly {
					videos, err = st.PendingVideosByJob(cmd.Context(), job.LocalID)
				} else {
					videos, err = st.VideosByJob(cmd.Context(), job.LocalID)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(videos) == 0 {
					fmt.Fprintln(out, "No videos")
					return nil
				}

				rows := make([][]string, 0, len(videos))
				for _, video := range videos {
					message := video.ErrorMessage
					if message == "" {
						message = "-"
					}
					rows = append(rows, []string{
						shortID(video.LocalID),
						truncate(video.FileRef, 40),
						string(video.Status),
						fmt.Sprintf("%d", video.RetryCount),
						truncate(message, 40),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "File", "Status", "Attempts", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Show only videos not yet uploaded")
	return cmd
}

func newVideoRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <videoID>",
		Short: "Requeue a failed video for upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				video, err := st.RetryVideo(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Video %s requeued for upload\n", video.LocalID)
				return nil
			})
		},
	}
}
