package slipway

import (
	"fmt"
	"os"

	"github.com/railwayapp/slipway/internal/export"
	"github.com/railwayapp/slipway/internal/nativedeps"
	"github.com/railwayapp/slipway/internal/plan"
	"github.com/spf13/cobra"
)

var planFormat string

var planCmd = &cobra.Command{
	Use:   "plan [source-path]",
	Short: "Discover the application and print the two-stage build plan",
	Long: `Plan runs discovery and planning without rendering a Dockerfile. The
resulting plan shows both stages, their OS package sets, the artifact
promotions, and the per-stage cache keys.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sourcePath := "."
		if len(args) > 0 {
			sourcePath = args[0]
		}

		if err := runPlan(cmd, sourcePath); err != nil {
			logger.Error("planning failed", "err", err)
			os.Exit(1)
		}
	},
}

func runPlan(cmd *cobra.Command, sourcePath string) error {
	filesystem, cleanup, err := newFilesystem(sourcePath)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := plan.NewPipeline(filesystem, plannerConfig(), nativedeps.NewRegistry())
	result, err := pipeline.Run(cmd.Context(), rootOf(filesystem, sourcePath))
	if err != nil {
		return err
	}

	for _, warning := range result.Plan.Warnings {
		logger.Warn(warning)
	}

	exporter := export.ByName(planFormat)
	if exporter == nil {
		return fmt.Errorf("unknown format %q (want json or yaml)", planFormat)
	}

	output, err := exporter.Export(result.Plan)
	if err != nil {
		return fmt.Errorf("%s export failed: %w", exporter.Name(), err)
	}

	fmt.Println(string(output))
	return nil
}

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(planCmd)
}
