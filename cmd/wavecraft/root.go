package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wavecraft/wavecraft/internal/config"
	"github.com/wavecraft/wavecraft/internal/logging"
	"github.com/wavecraft/wavecraft/internal/metrics"
)

// RootCommand builds the wavecraft CLI: headless subcommands over the
// editor's core packages, for batch jobs and scripting without a GUI.
func RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "wavecraft",
		Short: "Non-destructive audio editing core",
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		logging.Init()

		recorder := metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer)
		if err := initTelemetry(recorder); err != nil {
			return fmt.Errorf("starting telemetry: %w", err)
		}
		if err := initSentry(settings); err != nil {
			return fmt.Errorf("starting crash reporting: %w", err)
		}
		return nil
	}

	root.AddCommand(
		renderCommand(),
		convertCommand(),
		scanCommand(),
	)
	return root
}
