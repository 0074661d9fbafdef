package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jobsync/internal/config"
	"jobsync/internal/store"
)

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Create and manage jobs",
	}

	jobCmd.AddCommand(newJobCreateCommand(ctx))
	jobCmd.AddCommand(newJobListCommand(ctx))
	jobCmd.AddCommand(newJobShowCommand(ctx))
	jobCmd.AddCommand(newJobUpdateCommand(ctx))
	jobCmd.AddCommand(newJobDeleteCommand(ctx))

	return jobCmd
}

func newJobCreateCommand(ctx *commandContext) *cobra.Command {
	var location string
	var budget float64
	var description string
	var userID string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a job locally and queue it for sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				job, err := st.CreateJob(cmd.Context(), store.NewJob{
					Title:       args[0],
					Location:    location,
					Budget:      budget,
					Description: description,
					UserID:      userID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created job %s (queued for sync)\n", job.LocalID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "Job site location")
	cmd.Flags().Float64VarP(&budget, "budget", "b", 0, "Job budget")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Job description")
	cmd.Flags().StringVar(&userID, "user", "", "Owning user id")
	return cmd
}

func newJobListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				jobs, err := st.ListJobs(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}

				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						shortID(job.LocalID),
						truncate(job.Title, 40),
						truncate(job.Location, 24),
						formatBudget(job.Budget),
						formatSynced(job),
						formatMillis(job.CreatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Title", "Location", "Budget", "Sync", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show one job with its notes and videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				job, err := resolveJob(cmd, st, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "Job %s\n", job.LocalID)
				fmt.Fprintf(out, "  Title:       %s\n", job.Title)
				fmt.Fprintf(out, "  Location:    %s\n", job.Location)
				fmt.Fprintf(out, "  Budget:      %s\n", formatBudget(job.Budget))
				if job.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", job.Description)
				}
				fmt.Fprintf(out, "  Sync:        %s\n", formatSynced(job))
				if job.ServerID != "" {
					fmt.Fprintf(out, "  Server ID:   %s\n", job.ServerID)
				}
				fmt.Fprintf(out, "  Created:     %s\n", formatMillis(job.CreatedAt))
				fmt.Fprintf(out, "  Updated:     %s\n", formatMillis(job.UpdatedAt))

				notes, err := st.NotesByJob(cmd.Context(), job.LocalID)
				if err != nil {
					return err
				}
				if len(notes) > 0 {
					fmt.Fprintf(out, "\nNotes (%d):\n", len(notes))
					for _, note := range notes {
						marker := " "
						if note.Dirty {
							marker = "*"
						}
						fmt.Fprintf(out, "  %s [%s] %s\n", marker, shortID(note.LocalID), truncate(note.Content, 70))
					}
				}

				videos, err := st.VideosByJob(cmd.Context(), job.LocalID)
				if err != nil {
					return err
				}
				if len(videos) > 0 {
					fmt.Fprintf(out, "\nVideos (%d):\n", len(videos))
					for _, video := range videos {
						fmt.Fprintf(out, "  [%s] %s %s (attempt %d)\n",
							shortID(video.LocalID), video.Status, video.FileRef, video.RetryCount)
					}
				}
				return nil
			})
		},
	}
}

func newJobUpdateCommand(ctx *commandContext) *cobra.Command {
	var title string
	var location string
	var budget float64
	var description string

	cmd := &cobra.Command{
		Use:   "update <jobID>",
		Short: "Update a job locally and queue the change for sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				job, err := resolveJob(cmd, st, args[0])
				if err != nil {
					return err
				}

				update := store.JobUpdate{
					Title:       job.Title,
					Location:    job.Location,
					Budget:      job.Budget,
					Description: job.Description,
				}
				if cmd.Flags().Changed("title") {
					update.Title = title
				}
				if cmd.Flags().Changed("location") {
					update.Location = location
				}
				if cmd.Flags().Changed("budget") {
					update.Budget = budget
				}
				if cmd.Flags().Changed("description") {
					update.Description = description
				}

				updated, err := st.UpdateJob(cmd.Context(), job.LocalID, update)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated job %s (queued for sync)\n", updated.LocalID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&location, "location", "l", "", "New location")
	cmd.Flags().Float64VarP(&budget, "budget", "b", 0, "New budget")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func newJobDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <jobID>",
		Short: "Delete a job and its notes and videos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				job, err := resolveJob(cmd, st, args[0])
				if err != nil {
					return err
				}
				if err := st.DeleteJob(cmd.Context(), job.LocalID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s (deletion queued for sync)\n", job.LocalID)
				return nil
			})
		},
	}
}

// resolveJob accepts a full local id or an unambiguous prefix.
func resolveJob(cmd *cobra.Command, st *store.Store, id string) (*store.Job, error) {
	job, err := st.FindJob(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if job != nil {
		return job, nil
	}

	jobs, err := st.ListJobs(cmd.Context())
	if err != nil {
		return nil, err
	}
	var match *store.Job
	for _, candidate := range jobs {
		if len(id) >= 4 && (strings.HasPrefix(candidate.LocalID, id) || candidate.ServerID == id) {
			if match != nil {
				return nil, fmt.Errorf("job id %q is ambiguous", id)
			}
			match = candidate
		}
	}
	if match == nil {
		return nil, fmt.Errorf("job %q not found", id)
	}
	return match, nil
}
