package slipway

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/railwayapp/slipway/internal/layercache"
	"github.com/railwayapp/slipway/internal/nativedeps"
	"github.com/railwayapp/slipway/internal/plan"
	"github.com/railwayapp/slipway/internal/render"
	"github.com/railwayapp/slipway/internal/verify"
	"github.com/spf13/cobra"
)

var (
	renderForce   bool
	renderIgnore  bool
	renderCompose bool
	renderOut     string
)

var renderCmd = &cobra.Command{
	Use:   "render [source-path]",
	Short: "Render the Dockerfile (and companions) into the source tree",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sourcePath := "."
		if len(args) > 0 {
			sourcePath = args[0]
		}

		if err := runRender(cmd, sourcePath); err != nil {
			logger.Error("render failed", "err", err)
			os.Exit(1)
		}
	},
}

func runRender(cmd *cobra.Command, sourcePath string) error {
	filesystem, cleanup, err := newFilesystem(sourcePath)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := nativedeps.NewRegistry()
	pipeline := plan.NewPipeline(filesystem, plannerConfig(), registry)
	result, err := pipeline.Run(cmd.Context(), rootOf(filesystem, sourcePath))
	if err != nil {
		return err
	}

	if result.App.DockerfilePath != "" && !renderForce {
		return fmt.Errorf("descriptor already exists at %s (use --force to overwrite)", result.App.DockerfilePath)
	}

	dockerfile, err := render.Dockerfile(result.Plan)
	if err != nil {
		return err
	}

	findings, err := verify.NewVerifier(registry).Verify(dockerfile, result.Manifest)
	if err != nil {
		return err
	}
	reportFindings(findings)
	if verify.HasErrors(findings) {
		return fmt.Errorf("refusing to write a descriptor that fails verification")
	}

	// The cache store only ever grows; a seen key means an unchanged closure
	store, err := layercache.NewStore("")
	if err != nil {
		return err
	}
	for _, stage := range []plan.StageSpec{result.Plan.Build, result.Plan.Runtime} {
		if store.Seen(stage.CacheKey) {
			logger.Info("stage unchanged since last render", "stage", stage.Name, "key", stage.CacheKey.Short())
		} else if err := store.Record(stage.CacheKey, stage.Name+" "+result.App.Name); err != nil {
			return err
		}
	}

	outDir := renderOut
	if outDir == "" {
		outDir = sourcePath
	}

	dockerfilePath := filepath.Join(outDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, dockerfile, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", dockerfilePath, err)
	}
	logger.Info("wrote descriptor", "path", dockerfilePath)

	if renderIgnore {
		ignorePath := filepath.Join(outDir, ".dockerignore")
		if err := os.WriteFile(ignorePath, render.Dockerignore(), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", ignorePath, err)
		}
		logger.Info("wrote ignore file", "path", ignorePath)
	}

	if renderCompose {
		composeBytes, err := render.Compose(result.Plan)
		if err != nil {
			return err
		}
		composePath := filepath.Join(outDir, "compose.yaml")
		if err := os.WriteFile(composePath, composeBytes, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", composePath, err)
		}
		logger.Info("wrote compose file", "path", composePath)
	}

	return nil
}

func init() {
	renderCmd.Flags().BoolVar(&renderForce, "force", false, "overwrite an existing Dockerfile")
	renderCmd.Flags().BoolVar(&renderIgnore, "ignore", true, "also write a .dockerignore")
	renderCmd.Flags().BoolVar(&renderCompose, "compose", false, "also write a compose.yaml for local runs")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output directory (default: the source tree)")
	rootCmd.AddCommand(renderCmd)
}
