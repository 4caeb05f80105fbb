package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wavecraft/wavecraft/internal/config"
	"github.com/wavecraft/wavecraft/internal/pluginscan"
)

func scanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [plugin paths...]",
		Short: "Scan plugins out-of-process, isolated from crashes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := config.GetDefaultConfigPaths()
			if err != nil || len(dirs) == 0 {
				return fmt.Errorf("resolving cache directory: %w", err)
			}
			cacheDir := filepath.Clean(dirs[0])

			coordinator, err := pluginscan.NewCoordinator(cacheDir, func(string) pluginscan.TimeoutDecision {
				return pluginscan.Skip // headless CLI: never prompts, just skips on timeout
			})
			if err != nil {
				return err
			}
			defer coordinator.Shutdown()

			results, err := coordinator.Scan(context.Background(), args)
			if err != nil {
				return err
			}

			for _, r := range results {
				fmt.Printf("%-40s %-10s %s\n", r.Path, statusName(r.Status), r.Error)
			}
			return nil
		},
	}
	return cmd
}

func statusName(s pluginscan.Status) string {
	switch s {
	case pluginscan.Success:
		return "success"
	case pluginscan.Failed:
		return "failed"
	case pluginscan.Crashed:
		return "crashed"
	case pluginscan.Timeout:
		return "timeout"
	case pluginscan.Skipped:
		return "skipped"
	case pluginscan.Blacklisted:
		return "blacklisted"
	case pluginscan.Cached:
		return "cached"
	default:
		return "pending"
	}
}
