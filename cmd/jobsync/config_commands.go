package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jobsync/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage jobsync configuration",
	}

	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", path)
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Data directory:   %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Log directory:    %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Media directory:  %s\n", cfg.Paths.MediaDir)
			fmt.Fprintf(out, "Database:         %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "API base URL:     %s\n", cfg.API.BaseURL)
			fmt.Fprintf(out, "API token set:    %s\n", yesNo(cfg.API.Token != ""))
			fmt.Fprintf(out, "Request timeout:  %ds\n", cfg.API.RequestTimeout)
			fmt.Fprintf(out, "Retry attempts:   %d\n", cfg.Sync.RetryAttempts)
			fmt.Fprintf(out, "Retry delay:      %ds\n", cfg.Sync.RetryDelaySeconds)
			fmt.Fprintf(out, "Video retry cap:  %d\n", cfg.Sync.VideoRetryCap)
			fmt.Fprintf(out, "Poll interval:    %ds\n", cfg.Sync.PollInterval)
			fmt.Fprintf(out, "Log format:       %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log level:        %s\n", cfg.Logging.Level)
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
